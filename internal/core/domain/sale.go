package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale payment was taken.
type PaymentMethod string

const (
	PayCash   PaymentMethod = "CASH"
	PayBank   PaymentMethod = "BANK"
	PayWallet PaymentMethod = "WALLET"
)

// PaymentStatus is the derived settlement state of a sale.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// Sale is a completed point-of-sale checkout: items sold, totals and the
// payments taken so far. PaidAmount and PaymentStatus are derived from the
// payment rows and kept in step with them.
type Sale struct {
	SaleID              string          `json:"saleID"`    // Primary key (UUID)
	InvoiceNo           string          `json:"invoiceNo"` // Unique, generated
	CustomerID          *string         `json:"customerID,omitempty"` // Nil = walk-in
	SaleDate            time.Time       `json:"saleDate"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Discount            decimal.Decimal `json:"discount"`
	Total               decimal.Decimal `json:"total"`
	PaidAmount          decimal.Decimal `json:"paidAmount"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus"`
	Notes               string          `json:"notes,omitempty"`
	LedgerTransactionID *string         `json:"ledgerTransactionID,omitempty"`
	BranchID            string          `json:"branchID,omitempty"`
	AuditFields
}

// SaleItem is one product line on a sale.
type SaleItem struct {
	SaleItemID string          `json:"saleItemID"` // Primary key (UUID)
	SaleID     string          `json:"saleID"`
	ProductID  string          `json:"productID"`
	Quantity   decimal.Decimal `json:"quantity"` // Strictly positive
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
}

// SalePayment is one payment leg against a sale.
type SalePayment struct {
	PaymentID     string          `json:"paymentID"` // Primary key (UUID)
	SaleID        string          `json:"saleID"`
	Method        PaymentMethod   `json:"method"`
	Amount        decimal.Decimal `json:"amount"` // Strictly positive
	BankAccountID *string         `json:"bankAccountID,omitempty"` // Required for BANK method
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// DerivePaymentStatus maps a paid amount against a total.
func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return PaymentUnpaid
	case paid.LessThan(total):
		return PaymentPartial
	default:
		return PaymentPaid
	}
}
