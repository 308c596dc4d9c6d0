package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateProductRequest defines the data needed to register a product.
type CreateProductRequest struct {
	SKU           string          `json:"sku" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Unit          string          `json:"unit"` // Optional: pcs, kg, box
	CostPrice     decimal.Decimal `json:"costPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice" binding:"required"`
	StockQuantity decimal.Decimal `json:"stockQuantity"` // Optional: initial stock
}

// UpdateProductRequest defines the data allowed for updating a product.
type UpdateProductRequest struct {
	Name         *string          `json:"name"`         // Optional: New name
	Unit         *string          `json:"unit"`         // Optional: New unit
	CostPrice    *decimal.Decimal `json:"costPrice"`    // Optional: New cost price
	SellingPrice *decimal.Decimal `json:"sellingPrice"` // Optional: New selling price
}

// AdjustStockRequest defines a manual stock correction. Positive delta
// receives stock, negative writes it off.
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta" binding:"required"`
	Reason string          `json:"reason"` // Optional
}

// ProductResponse defines the data returned for a product.
type ProductResponse struct {
	ProductID     string          `json:"productID"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit,omitempty"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockQuantity decimal.Decimal `json:"stockQuantity"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ToProductResponse converts a domain.Product to a DTO.
func ToProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ProductID:     p.ProductID,
		SKU:           p.SKU,
		Name:          p.Name,
		Unit:          p.Unit,
		CostPrice:     p.CostPrice,
		SellingPrice:  p.SellingPrice,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		LastUpdatedAt: p.LastUpdatedAt,
	}
}

// ListProductsParams defines query parameters for listing products.
type ListProductsParams struct {
	ActiveOnly bool `form:"activeOnly,default=false"`
	Limit      int  `form:"limit,default=20"`
	Offset     int  `form:"offset,default=0"`
}

// ListProductsResponse wraps the list of products.
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// ToListProductsResponse converts a slice of domain.Product to DTO.
func ToListProductsResponse(products []domain.Product) ListProductsResponse {
	res := make([]ProductResponse, len(products))
	for i, p := range products {
		res[i] = ToProductResponse(&p)
	}
	return ListProductsResponse{Products: res}
}
