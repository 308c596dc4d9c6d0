package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// TransferListFilter narrows ListTransfers results.
type TransferListFilter struct {
	Status        *domain.TransferStatus
	BankAccountID *string // Matches either leg
}

// TransferReader defines read operations for money transfers
type TransferReader interface {
	// FindTransferByID retrieves a specific transfer by its unique identifier.
	FindTransferByID(ctx context.Context, transferID string) (*domain.MoneyTransfer, error)

	// ListTransfers retrieves a paginated list of transfers using token-based pagination.
	ListTransfers(ctx context.Context, filter TransferListFilter, limit int, nextToken *string) ([]domain.MoneyTransfer, *string, error)
}

// TransferWriter defines write and state-transition operations for transfers.
// All transitions are conditional updates; a lost race surfaces as
// ErrAlreadyCompleted or ErrInvalidTransition, never as a retry.
type TransferWriter interface {
	// SaveTransfer persists a new transfer in PENDING state.
	SaveTransfer(ctx context.Context, transfer domain.MoneyTransfer) error

	// TransitionTransfer moves a transfer from any of the allowed source
	// states to the target state via a single conditional UPDATE.
	// failureReason is stored for FAILED transitions only.
	TransitionTransfer(ctx context.Context, transferID string, from []domain.TransferStatus, to domain.TransferStatus, failureReason string, userID string, now time.Time) (*domain.MoneyTransfer, error)

	// CompleteTransfer performs the COMPLETED transition and the bank balance
	// movements in one database transaction: conditional status UPDATE from
	// PENDING/PROCESSING, then from-leg decrement and to-leg increment on
	// rows locked in sorted order. Nil (cash) legs are skipped.
	CompleteTransfer(ctx context.Context, transferID string, approverID string, now time.Time) (*domain.MoneyTransfer, error)

	// SetLedgerTransactionID records the posting produced for a completed transfer.
	SetLedgerTransactionID(ctx context.Context, transferID string, ledgerTransactionID string) error
}

// TransferRepositoryFacade combines all transfer repository interfaces
type TransferRepositoryFacade interface {
	TransferReader
	TransferWriter
}

// TransferRepositoryWithTx extends TransferRepositoryFacade with transaction capabilities
type TransferRepositoryWithTx interface {
	TransferRepositoryFacade
	TransactionManager
}
