package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus is the review state shared by expenses and incomes.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ExpenseCategory groups expenses and optionally pins them to a specific
// expense account in the chart. A nil LedgerAccountID falls back to the
// GENERAL_EXPENSE chart default.
type ExpenseCategory struct {
	CategoryID      string  `json:"categoryID"` // Primary key (UUID)
	Name            string  `json:"name"`       // Unique
	Description     string  `json:"description,omitempty"`
	LedgerAccountID *string `json:"ledgerAccountID,omitempty"`
	AuditFields
}

// Expense is a spend record that hits the ledger only on approval.
// LedgerTransactionID is set when the approval posting succeeded; an
// APPROVED expense with a nil id is a degraded approval awaiting repair.
type Expense struct {
	ExpenseID             string          `json:"expenseID"` // Primary key (UUID)
	CategoryID            string          `json:"categoryID"`
	Amount                decimal.Decimal `json:"amount"` // Strictly positive
	ExpenseDate           time.Time       `json:"expenseDate"`
	Description           string          `json:"description"`
	PaidFromBankAccountID *string         `json:"paidFromBankAccountID,omitempty"` // Nil = paid in cash
	Status                ApprovalStatus  `json:"status"`
	ApprovedBy            string          `json:"approvedBy,omitempty"`
	ApprovedAt            *time.Time      `json:"approvedAt,omitempty"`
	LedgerTransactionID   *string         `json:"ledgerTransactionID,omitempty"`
	BranchID              string          `json:"branchID,omitempty"`
	AuditFields
}
