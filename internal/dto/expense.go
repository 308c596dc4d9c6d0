package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateExpenseRequest defines the data needed to record an expense.
// Nothing posts to the ledger until the expense is approved.
type CreateExpenseRequest struct {
	CategoryID            string          `json:"categoryID" binding:"required"`
	Amount                decimal.Decimal `json:"amount" binding:"required"`
	ExpenseDate           time.Time       `json:"expenseDate" binding:"required"`
	Description           string          `json:"description"`           // Optional
	PaidFromBankAccountID *string         `json:"paidFromBankAccountID"` // Optional: nil means paid in cash
}

// UpdateExpenseRequest defines the data allowed for updating a pending expense.
type UpdateExpenseRequest struct {
	CategoryID            *string          `json:"categoryID"`            // Optional: New category
	Amount                *decimal.Decimal `json:"amount"`                // Optional: New amount
	ExpenseDate           *time.Time       `json:"expenseDate"`           // Optional: New date
	Description           *string          `json:"description"`           // Optional: New description
	PaidFromBankAccountID *string          `json:"paidFromBankAccountID"` // Optional: New source
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID             string                `json:"expenseID"`
	CategoryID            string                `json:"categoryID"`
	Amount                decimal.Decimal       `json:"amount"`
	ExpenseDate           time.Time             `json:"expenseDate"`
	Description           string                `json:"description,omitempty"`
	PaidFromBankAccountID *string               `json:"paidFromBankAccountID,omitempty"`
	Status                domain.ApprovalStatus `json:"status"`
	ApprovedBy            string                `json:"approvedBy,omitempty"`
	ApprovedAt            *time.Time            `json:"approvedAt,omitempty"`
	LedgerTransactionID   *string               `json:"ledgerTransactionID,omitempty"`
	BranchID              string                `json:"branchID,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	CreatedBy             string                `json:"createdBy"`
}

// ToExpenseResponse converts a domain.Expense to a DTO.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:             e.ExpenseID,
		CategoryID:            e.CategoryID,
		Amount:                e.Amount,
		ExpenseDate:           e.ExpenseDate,
		Description:           e.Description,
		PaidFromBankAccountID: e.PaidFromBankAccountID,
		Status:                e.Status,
		ApprovedBy:            e.ApprovedBy,
		ApprovedAt:            e.ApprovedAt,
		LedgerTransactionID:   e.LedgerTransactionID,
		BranchID:              e.BranchID,
		CreatedAt:             e.CreatedAt,
		CreatedBy:             e.CreatedBy,
	}
}

// ListExpensesParams defines query parameters for listing expenses.
type ListExpensesParams struct {
	Status     *string    `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	CategoryID *string    `form:"categoryID"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Limit      int        `form:"limit,default=20"`
	NextToken  *string    `form:"nextToken"`
}

// ListExpensesResponse wraps a page of expenses.
type ListExpensesResponse struct {
	Expenses  []ExpenseResponse `json:"expenses"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ApproveExpenseResponse combines the approved expense with the outcome of
// its ledger posting.
type ApproveExpenseResponse struct {
	Expense ExpenseResponse       `json:"expense"`
	Posting PostingResultResponse `json:"posting"`
}
