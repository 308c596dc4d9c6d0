package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateIncomeRequest defines the data needed to record a non-sale income.
// Nothing posts to the ledger until the income is approved.
type CreateIncomeRequest struct {
	CategoryID              string          `json:"categoryID" binding:"required"`
	Amount                  decimal.Decimal `json:"amount" binding:"required"`
	IncomeDate              time.Time       `json:"incomeDate" binding:"required"`
	Description             string          `json:"description"`             // Optional
	ReceivedInBankAccountID *string         `json:"receivedInBankAccountID"` // Optional: nil means received in cash
}

// UpdateIncomeRequest defines the data allowed for updating a pending income.
type UpdateIncomeRequest struct {
	CategoryID              *string          `json:"categoryID"`              // Optional: New category
	Amount                  *decimal.Decimal `json:"amount"`                  // Optional: New amount
	IncomeDate              *time.Time       `json:"incomeDate"`              // Optional: New date
	Description             *string          `json:"description"`             // Optional: New description
	ReceivedInBankAccountID *string          `json:"receivedInBankAccountID"` // Optional: New destination
}

// IncomeResponse defines the data returned for an income.
type IncomeResponse struct {
	IncomeID                string                `json:"incomeID"`
	CategoryID              string                `json:"categoryID"`
	Amount                  decimal.Decimal       `json:"amount"`
	IncomeDate              time.Time             `json:"incomeDate"`
	Description             string                `json:"description,omitempty"`
	ReceivedInBankAccountID *string               `json:"receivedInBankAccountID,omitempty"`
	Status                  domain.ApprovalStatus `json:"status"`
	ApprovedBy              string                `json:"approvedBy,omitempty"`
	ApprovedAt              *time.Time            `json:"approvedAt,omitempty"`
	LedgerTransactionID     *string               `json:"ledgerTransactionID,omitempty"`
	BranchID                string                `json:"branchID,omitempty"`
	CreatedAt               time.Time             `json:"createdAt"`
	CreatedBy               string                `json:"createdBy"`
}

// ToIncomeResponse converts a domain.Income to a DTO.
func ToIncomeResponse(in *domain.Income) IncomeResponse {
	return IncomeResponse{
		IncomeID:                in.IncomeID,
		CategoryID:              in.CategoryID,
		Amount:                  in.Amount,
		IncomeDate:              in.IncomeDate,
		Description:             in.Description,
		ReceivedInBankAccountID: in.ReceivedInBankAccountID,
		Status:                  in.Status,
		ApprovedBy:              in.ApprovedBy,
		ApprovedAt:              in.ApprovedAt,
		LedgerTransactionID:     in.LedgerTransactionID,
		BranchID:                in.BranchID,
		CreatedAt:               in.CreatedAt,
		CreatedBy:               in.CreatedBy,
	}
}

// ListIncomesParams defines query parameters for listing incomes.
type ListIncomesParams struct {
	Status     *string    `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	CategoryID *string    `form:"categoryID"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Limit      int        `form:"limit,default=20"`
	NextToken  *string    `form:"nextToken"`
}

// ListIncomesResponse wraps a page of incomes.
type ListIncomesResponse struct {
	Incomes   []IncomeResponse `json:"incomes"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// ApproveIncomeResponse combines the approved income with the outcome of
// its ledger posting.
type ApproveIncomeResponse struct {
	Income  IncomeResponse        `json:"income"`
	Posting PostingResultResponse `json:"posting"`
}
