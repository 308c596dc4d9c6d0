package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the state of a money transfer.
type TransferStatus string

const (
	TransferPending    TransferStatus = "PENDING"
	TransferProcessing TransferStatus = "PROCESSING"
	TransferCompleted  TransferStatus = "COMPLETED"
	TransferFailed     TransferStatus = "FAILED"
	TransferCancelled  TransferStatus = "CANCELLED"
)

// transferTransitions is the full transition table. COMPLETED, FAILED and
// CANCELLED are terminal. Cancellation is only possible before settlement
// starts; a PROCESSING transfer can only complete or fail.
var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending:    {TransferProcessing, TransferCompleted, TransferFailed, TransferCancelled},
	TransferProcessing: {TransferCompleted, TransferFailed},
}

// CanTransitionTo reports whether the state machine allows moving from s to target.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s TransferStatus) IsTerminal() bool {
	return len(transferTransitions[s]) == 0
}

// MoneyTransfer models movement of funds between two bank accounts, or
// between a bank account and the cash drawer when one side is nil.
// Balances are touched only on the transition to COMPLETED.
type MoneyTransfer struct {
	TransferID          string          `json:"transferID"` // Primary key (UUID)
	FromBankAccountID   *string         `json:"fromBankAccountID,omitempty"` // Nil = cash leg
	ToBankAccountID     *string         `json:"toBankAccountID,omitempty"`   // Nil = cash leg
	Amount              decimal.Decimal `json:"amount"`                      // Strictly positive
	ReferenceNo         string          `json:"referenceNo,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	TransferDate        time.Time       `json:"transferDate"`
	Status              TransferStatus  `json:"status"`
	ApprovedBy          string          `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time      `json:"approvedAt,omitempty"`
	FailureReason       string          `json:"failureReason,omitempty"`
	LedgerTransactionID *string         `json:"ledgerTransactionID,omitempty"` // Set when the completion posting succeeded
	BranchID            string          `json:"branchID,omitempty"`
	AuditFields
}
