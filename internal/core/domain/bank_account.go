package domain

import "github.com/shopspring/decimal"

// BankAccount is a real-world bank account the shop moves money through.
// Every bank account is backed by an asset account in the chart
// (LedgerAccountID) so transfers and approvals can post against it.
// CurrentBalance is the operational balance mutated by completed transfers.
type BankAccount struct {
	BankAccountID   string          `json:"bankAccountID"` // Primary key (UUID)
	Name            string          `json:"name"`
	BankName        string          `json:"bankName"`
	AccountNumber   string          `json:"accountNumber"` // Unique
	LedgerAccountID string          `json:"ledgerAccountID"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	IsActive        bool            `json:"isActive"`
	AuditFields
}
