package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string                 `json:"code" binding:"required"`
	Name            string                 `json:"name" binding:"required"`
	AccountType     domain.AccountTypeCode `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentAccountID *string                `json:"parentAccountID"` // Optional, use pointer for nullability
	Description     string                 `json:"description"`     // Optional
	OpeningBalance  decimal.Decimal        `json:"openingBalance"`  // Optional, defaults to zero
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name        *string `json:"name"`        // Optional: New name
	Description *string `json:"description"` // Optional: New description
	IsActive    *bool   `json:"isActive"`    // Optional: New active status
}

// SetChartDefaultRequest points a chart-default role at an account.
type SetChartDefaultRequest struct {
	AccountID string `json:"accountID" binding:"required"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID       string                 `json:"accountID"`
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	AccountType     domain.AccountTypeCode `json:"accountType"`
	ParentAccountID string                 `json:"parentAccountID,omitempty"` // Empty string if null in DB
	Description     string                 `json:"description"`
	OpeningBalance  decimal.Decimal        `json:"openingBalance"`
	CurrentBalance  decimal.Decimal        `json:"currentBalance"`
	IsActive        bool                   `json:"isActive"`
	CreatedAt       time.Time              `json:"createdAt"`
	CreatedBy       string                 `json:"createdBy"`
	LastUpdatedAt   time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy   string                 `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountTypeCode,
		ParentAccountID: acc.ParentAccountID,
		Description:     acc.Description,
		OpeningBalance:  acc.OpeningBalance,
		CurrentBalance:  acc.CurrentBalance,
		IsActive:        acc.IsActive,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc) // Reuse the single converter
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	AccountType *string `form:"accountType" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ActiveOnly  bool    `form:"activeOnly,default=false"`
	Limit       int     `form:"limit,default=20"`
	Offset      int     `form:"offset,default=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountTypeResponse defines the data returned for an account type.
type AccountTypeResponse struct {
	Code          domain.AccountTypeCode `json:"code"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	NormalBalance domain.NormalBalance   `json:"normalBalance"`
}

// ToListAccountTypeResponse converts domain account types to DTOs.
func ToListAccountTypeResponse(types []domain.AccountType) []AccountTypeResponse {
	res := make([]AccountTypeResponse, len(types))
	for i, t := range types {
		res[i] = AccountTypeResponse{
			Code:          t.Code,
			Name:          t.Name,
			Description:   t.Description,
			NormalBalance: t.NormalBalance,
		}
	}
	return res
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      *time.Time      `json:"asOf,omitempty"` // Set when a historical balance was requested
}

// RecomputeBalanceResponse reports the outcome of a cache rebuild for one account.
type RecomputeBalanceResponse struct {
	AccountID    string          `json:"accountID"`
	CachedBefore decimal.Decimal `json:"cachedBefore"`
	Computed     decimal.Decimal `json:"computed"`
	Corrected    bool            `json:"corrected"`
}

// ToRecomputeBalanceResponse converts a domain.BalanceResult to a DTO.
func ToRecomputeBalanceResponse(r *domain.BalanceResult) RecomputeBalanceResponse {
	return RecomputeBalanceResponse{
		AccountID:    r.AccountID,
		CachedBefore: r.CachedBefore,
		Computed:     r.Computed,
		Corrected:    r.Corrected,
	}
}
