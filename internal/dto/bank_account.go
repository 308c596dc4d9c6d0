package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateBankAccountRequest defines the data needed to register a bank account.
// A linked asset ledger account is created alongside it.
type CreateBankAccountRequest struct {
	Name           string          `json:"name" binding:"required"`
	BankName       string          `json:"bankName"` // Optional
	AccountNumber  string          `json:"accountNumber" binding:"required"`
	OpeningBalance decimal.Decimal `json:"openingBalance"` // Optional, defaults to zero
}

// UpdateBankAccountRequest defines the data allowed for updating a bank account.
type UpdateBankAccountRequest struct {
	Name          *string `json:"name"`          // Optional: New name
	BankName      *string `json:"bankName"`      // Optional: New bank name
	AccountNumber *string `json:"accountNumber"` // Optional: New account number
}

// BankAccountResponse defines the data returned for a bank account.
type BankAccountResponse struct {
	BankAccountID   string          `json:"bankAccountID"`
	Name            string          `json:"name"`
	BankName        string          `json:"bankName,omitempty"`
	AccountNumber   string          `json:"accountNumber,omitempty"`
	LedgerAccountID string          `json:"ledgerAccountID"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
}

// ToBankAccountResponse converts a domain.BankAccount to a DTO.
func ToBankAccountResponse(b *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		BankAccountID:   b.BankAccountID,
		Name:            b.Name,
		BankName:        b.BankName,
		AccountNumber:   b.AccountNumber,
		LedgerAccountID: b.LedgerAccountID,
		CurrentBalance:  b.CurrentBalance,
		IsActive:        b.IsActive,
		CreatedAt:       b.CreatedAt,
		LastUpdatedAt:   b.LastUpdatedAt,
	}
}

// ListBankAccountsResponse wraps the list of bank accounts.
type ListBankAccountsResponse struct {
	BankAccounts []BankAccountResponse `json:"bankAccounts"`
}

// ToListBankAccountsResponse converts a slice of domain.BankAccount to DTO.
func ToListBankAccountsResponse(accounts []domain.BankAccount) ListBankAccountsResponse {
	res := make([]BankAccountResponse, len(accounts))
	for i, b := range accounts {
		res[i] = ToBankAccountResponse(&b)
	}
	return ListBankAccountsResponse{BankAccounts: res}
}
