package domain

import "time"

// TransactionStatus indicates the lifecycle state of a posted transaction.
type TransactionStatus string

const (
	Posted   TransactionStatus = "POSTED"
	Reversed TransactionStatus = "REVERSED"
)

// Transaction represents a single balanced financial event composed of two or
// more journal entries. Once posted it is immutable; corrections happen by
// posting a reversing transaction and linking the pair.
type Transaction struct {
	TransactionID          string            `json:"transactionID"` // Primary key (UUID)
	TransactionDate        time.Time         `json:"transactionDate"`
	Description            string            `json:"description"` // Required
	Status                 TransactionStatus `json:"status"`
	OriginalTransactionID  string            `json:"originalTransactionID,omitempty"`  // Set on a reversing transaction
	ReversingTransactionID string            `json:"reversingTransactionID,omitempty"` // Set on a reversed original
	BranchID               string            `json:"branchID,omitempty"`
	AuditFields
}

// IsReversal reports whether this transaction was posted to undo another.
func (t *Transaction) IsReversal() bool {
	return t.OriginalTransactionID != ""
}
