package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType indicates whether a journal entry is a debit or a credit.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// JournalEntry is the atomic ledger line: one debit or credit against one
// account, always part of a balanced Transaction. Amount is strictly
// positive; direction is carried by EntryType.
type JournalEntry struct {
	EntryID        string          `json:"entryID"`       // Primary key (UUID)
	TransactionID  string          `json:"transactionID"` // FK -> transactions
	AccountID      string          `json:"accountID"`     // FK -> accounts
	EntryType      EntryType       `json:"entryType"`
	Amount         decimal.Decimal `json:"amount"`
	EntryDate      time.Time       `json:"entryDate"` // Inherited from the transaction at posting time
	Description    string          `json:"description,omitempty"`
	Reference      *Reference      `json:"reference,omitempty"`
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this entry applied
	AuditFields
}

// SignedAmount is the entry's contribution to its account's balance given the
// account type's normal balance side.
func (e *JournalEntry) SignedAmount(normal NormalBalance) decimal.Decimal {
	if (e.EntryType == Debit) == (normal == NormalDebit) {
		return e.Amount
	}
	return e.Amount.Neg()
}
