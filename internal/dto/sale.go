package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// SaleItemRequest defines one line of a sale.
type SaleItemRequest struct {
	ProductID string           `json:"productID" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unitPrice"` // Optional: overrides the product's selling price
}

// SalePaymentRequest defines one payment leg of a sale.
type SalePaymentRequest struct {
	Method        domain.PaymentMethod `json:"method" binding:"required,oneof=CASH BANK WALLET"`
	Amount        decimal.Decimal      `json:"amount" binding:"required"`
	BankAccountID *string              `json:"bankAccountID"` // Required when method is BANK
}

// CreateSaleRequest defines the data needed to record a sale. Payments may
// cover less than the total (the rest goes outstanding, registered customer
// required) or, with StoreCreditOverpay, more (the excess credits the
// customer's wallet).
type CreateSaleRequest struct {
	CustomerID         *string              `json:"customerID"` // Optional: walk-in when nil
	SaleDate           time.Time            `json:"saleDate" binding:"required"`
	Items              []SaleItemRequest    `json:"items" binding:"required,min=1,dive"`
	Payments           []SalePaymentRequest `json:"payments" binding:"omitempty,dive"`
	Discount           decimal.Decimal      `json:"discount"` // Optional: invoice-level discount
	Notes              string               `json:"notes"`    // Optional
	StoreCreditOverpay bool                 `json:"storeCreditOverpay"`
}

// AddSalePaymentRequest defines a follow-up payment against a sale with an
// outstanding amount.
type AddSalePaymentRequest struct {
	Method        domain.PaymentMethod `json:"method" binding:"required,oneof=CASH BANK WALLET"`
	Amount        decimal.Decimal      `json:"amount" binding:"required"`
	BankAccountID *string              `json:"bankAccountID"` // Required when method is BANK
}

// SaleResponse defines the data returned for a sale header.
type SaleResponse struct {
	SaleID              string               `json:"saleID"`
	InvoiceNo           string               `json:"invoiceNo"`
	CustomerID          *string              `json:"customerID,omitempty"`
	SaleDate            time.Time            `json:"saleDate"`
	Subtotal            decimal.Decimal      `json:"subtotal"`
	Discount            decimal.Decimal      `json:"discount"`
	Total               decimal.Decimal      `json:"total"`
	PaidAmount          decimal.Decimal      `json:"paidAmount"`
	PaymentStatus       domain.PaymentStatus `json:"paymentStatus"`
	Notes               string               `json:"notes,omitempty"`
	LedgerTransactionID *string              `json:"ledgerTransactionID,omitempty"`
	BranchID            string               `json:"branchID,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
	CreatedBy           string               `json:"createdBy"`
}

// SaleItemResponse defines the data returned for a sale line.
type SaleItemResponse struct {
	SaleItemID string          `json:"saleItemID"`
	ProductID  string          `json:"productID"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
}

// SalePaymentResponse defines the data returned for a payment leg.
type SalePaymentResponse struct {
	PaymentID     string               `json:"paymentID"`
	Method        domain.PaymentMethod `json:"method"`
	Amount        decimal.Decimal      `json:"amount"`
	BankAccountID *string              `json:"bankAccountID,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// SaleDetailResponse combines a sale with its items and payments.
type SaleDetailResponse struct {
	Sale     SaleResponse          `json:"sale"`
	Items    []SaleItemResponse    `json:"items"`
	Payments []SalePaymentResponse `json:"payments"`
}

// ToSaleResponse converts a domain.Sale to a DTO.
func ToSaleResponse(s *domain.Sale) SaleResponse {
	return SaleResponse{
		SaleID:              s.SaleID,
		InvoiceNo:           s.InvoiceNo,
		CustomerID:          s.CustomerID,
		SaleDate:            s.SaleDate,
		Subtotal:            s.Subtotal,
		Discount:            s.Discount,
		Total:               s.Total,
		PaidAmount:          s.PaidAmount,
		PaymentStatus:       s.PaymentStatus,
		Notes:               s.Notes,
		LedgerTransactionID: s.LedgerTransactionID,
		BranchID:            s.BranchID,
		CreatedAt:           s.CreatedAt,
		CreatedBy:           s.CreatedBy,
	}
}

// ToSaleDetailResponse assembles the combined sale detail DTO.
func ToSaleDetailResponse(s *domain.Sale, items []domain.SaleItem, payments []domain.SalePayment) SaleDetailResponse {
	detail := SaleDetailResponse{
		Sale:     ToSaleResponse(s),
		Items:    make([]SaleItemResponse, len(items)),
		Payments: make([]SalePaymentResponse, len(payments)),
	}
	for i, item := range items {
		detail.Items[i] = SaleItemResponse{
			SaleItemID: item.SaleItemID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  item.LineTotal,
		}
	}
	for i, p := range payments {
		detail.Payments[i] = SalePaymentResponse{
			PaymentID:     p.PaymentID,
			Method:        p.Method,
			Amount:        p.Amount,
			BankAccountID: p.BankAccountID,
			CreatedAt:     p.CreatedAt,
		}
	}
	return detail
}

// ListSalesParams defines query parameters for listing sales.
type ListSalesParams struct {
	CustomerID    *string    `form:"customerID"`
	PaymentStatus *string    `form:"paymentStatus" binding:"omitempty,oneof=UNPAID PARTIAL PAID"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Limit         int        `form:"limit,default=20"`
	NextToken     *string    `form:"nextToken"`
}

// ListSalesResponse wraps a page of sales.
type ListSalesResponse struct {
	Sales     []SaleResponse `json:"sales"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// CreateSaleResponse combines the recorded sale with the outcome of its
// ledger posting.
type CreateSaleResponse struct {
	Sale    SaleDetailResponse    `json:"sale"`
	Posting PostingResultResponse `json:"posting"`
}

// AddSalePaymentResponse combines the updated sale with the outcome of the
// settlement posting.
type AddSalePaymentResponse struct {
	Sale    SaleResponse          `json:"sale"`
	Posting PostingResultResponse `json:"posting"`
}
