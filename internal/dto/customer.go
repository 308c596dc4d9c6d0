package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateCustomerRequest defines the data needed to register a customer.
// The phone number doubles as the natural key for looking customers up at
// the till, so it is required and unique.
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"` // Optional
	Address string `json:"address"`                         // Optional
}

// UpdateCustomerRequest defines the data allowed for updating a customer.
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`    // Optional: New name
	Phone   *string `json:"phone"`   // Optional: New phone
	Email   *string `json:"email"`   // Optional: New email
	Address *string `json:"address"` // Optional: New address
}

// CustomerResponse defines the data returned for a customer.
type CustomerResponse struct {
	CustomerID    string          `json:"customerID"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	Email         string          `json:"email,omitempty"`
	Address       string          `json:"address,omitempty"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ToCustomerResponse converts a domain.Customer to CustomerResponse DTO
func ToCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID:    c.CustomerID,
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Address:       c.Address,
		WalletBalance: c.WalletBalance,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		LastUpdatedAt: c.LastUpdatedAt,
	}
}

// ListCustomersParams defines query parameters for listing customers.
type ListCustomersParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListCustomersResponse wraps the list of customers.
type ListCustomersResponse struct {
	Customers []CustomerResponse `json:"customers"`
}

// ToListCustomersResponse converts a slice of domain.Customer to DTO.
func ToListCustomersResponse(customers []domain.Customer) ListCustomersResponse {
	res := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		res[i] = ToCustomerResponse(&c)
	}
	return ListCustomersResponse{Customers: res}
}

// ApplyWalletTransactionRequest defines a single wallet movement. DEBIT
// spends stored value and fails on insufficient funds; CREDIT tops up.
type ApplyWalletTransactionRequest struct {
	TransactionType domain.WalletTransactionType `json:"transactionType" binding:"required,oneof=CREDIT DEBIT"`
	Amount          decimal.Decimal              `json:"amount" binding:"required"`
	Reason          string                       `json:"reason" binding:"required"`
}

// WalletTransactionResponse defines the data returned for a wallet movement.
type WalletTransactionResponse struct {
	WalletTxnID     string                       `json:"walletTxnID"`
	CustomerID      string                       `json:"customerID"`
	TransactionType domain.WalletTransactionType `json:"transactionType"`
	Amount          decimal.Decimal              `json:"amount"`
	BalanceAfter    decimal.Decimal              `json:"balanceAfter"`
	Reason          string                       `json:"reason,omitempty"`
	Reference       *ReferenceResponse           `json:"reference,omitempty"`
	CreatedAt       time.Time                    `json:"createdAt"`
	CreatedBy       string                       `json:"createdBy"`
}

// ToWalletTransactionResponse converts a domain.CustomerWalletTransaction to a DTO.
func ToWalletTransactionResponse(txn *domain.CustomerWalletTransaction) WalletTransactionResponse {
	resp := WalletTransactionResponse{
		WalletTxnID:     txn.WalletTxnID,
		CustomerID:      txn.CustomerID,
		TransactionType: txn.TransactionType,
		Amount:          txn.Amount,
		BalanceAfter:    txn.BalanceAfter,
		Reason:          txn.Reason,
		CreatedAt:       txn.CreatedAt,
		CreatedBy:       txn.CreatedBy,
	}
	if txn.Reference != nil {
		resp.Reference = &ReferenceResponse{Kind: txn.Reference.Kind, ID: txn.Reference.ID}
	}
	return resp
}

// ListWalletTransactionsParams defines query parameters for a customer's
// wallet history.
type ListWalletTransactionsParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListWalletTransactionsResponse wraps a page of wallet movements.
type ListWalletTransactionsResponse struct {
	Transactions []WalletTransactionResponse `json:"transactions"`
	NextToken    *string                     `json:"nextToken,omitempty"`
}
