package domain

import "github.com/shopspring/decimal"

// Product is a sellable item with tracked stock.
// StockQuantity uses the same fixed-point type as money so fractional units
// (kg, litres) work; it never goes negative.
type Product struct {
	ProductID     string          `json:"productID"` // Primary key (UUID)
	SKU           string          `json:"sku"`       // Unique
	Name          string          `json:"name"`
	Unit          string          `json:"unit"` // e.g. "pcs", "kg"
	CostPrice     decimal.Decimal `json:"costPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockQuantity decimal.Decimal `json:"stockQuantity"`
	IsActive      bool            `json:"isActive"`
	AuditFields
}
