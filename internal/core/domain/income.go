package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeCategory groups non-sale incomes (service fees, commissions, rent
// received). A nil LedgerAccountID falls back to the OTHER_INCOME default.
type IncomeCategory struct {
	CategoryID      string  `json:"categoryID"` // Primary key (UUID)
	Name            string  `json:"name"`       // Unique
	Description     string  `json:"description,omitempty"`
	LedgerAccountID *string `json:"ledgerAccountID,omitempty"`
	AuditFields
}

// Income mirrors Expense on the receiving side: recorded first, posted to
// the ledger only on approval.
type Income struct {
	IncomeID                string          `json:"incomeID"` // Primary key (UUID)
	CategoryID              string          `json:"categoryID"`
	Amount                  decimal.Decimal `json:"amount"` // Strictly positive
	IncomeDate              time.Time       `json:"incomeDate"`
	Description             string          `json:"description"`
	ReceivedInBankAccountID *string         `json:"receivedInBankAccountID,omitempty"` // Nil = received in cash
	Status                  ApprovalStatus  `json:"status"`
	ApprovedBy              string          `json:"approvedBy,omitempty"`
	ApprovedAt              *time.Time      `json:"approvedAt,omitempty"`
	LedgerTransactionID     *string         `json:"ledgerTransactionID,omitempty"`
	BranchID                string          `json:"branchID,omitempty"`
	AuditFields
}
