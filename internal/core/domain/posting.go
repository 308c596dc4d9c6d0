package domain

import "github.com/shopspring/decimal"

// EntryInput is one requested line of a posting: the caller names the
// account and the side, the engine does the rest.
type EntryInput struct {
	AccountID   string          `json:"accountID"`
	EntryType   EntryType       `json:"entryType"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// PostingResult is the typed outcome handed back by the ledger poster to
// approval flows. Posted=false with a FailureReason is the degraded-success
// case: the approval stands, the ledger write did not.
type PostingResult struct {
	Posted        bool   `json:"posted"`
	TransactionID string `json:"transactionID,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}
