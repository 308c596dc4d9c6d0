package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// TransferReaderSvc defines read operations for money transfers
type TransferReaderSvc interface {
	// GetTransferByID retrieves a specific transfer by its unique identifier.
	GetTransferByID(ctx context.Context, transferID string) (*domain.MoneyTransfer, error)

	// ListTransfers retrieves a paginated list of transfers.
	ListTransfers(ctx context.Context, params dto.ListTransfersParams) (*dto.ListTransfersResponse, error)
}

// TransferWriterSvc drives the transfer state machine. Every transition is
// a conditional update; racing callers get a validation error, not a retry.
type TransferWriterSvc interface {
	// CreateTransfer records a new transfer in PENDING state. No balances move.
	CreateTransfer(ctx context.Context, req dto.CreateTransferRequest, userID string) (*domain.MoneyTransfer, error)

	// MarkProcessing claims a PENDING transfer for settlement.
	MarkProcessing(ctx context.Context, transferID string, userID string) (*domain.MoneyTransfer, error)

	// ApproveTransfer completes a PENDING or PROCESSING transfer: bank
	// balances move exactly once, then the completion posting is attempted
	// with degraded-success semantics. Approving a COMPLETED transfer fails
	// with ErrAlreadyCompleted.
	ApproveTransfer(ctx context.Context, transferID string, userID string) (*domain.MoneyTransfer, domain.PostingResult, error)

	// CancelTransfer cancels a PENDING or PROCESSING transfer. No balances move.
	CancelTransfer(ctx context.Context, transferID string, userID string) (*domain.MoneyTransfer, error)

	// FailTransfer marks a PENDING or PROCESSING transfer failed with a reason.
	FailTransfer(ctx context.Context, transferID string, reason string, userID string) (*domain.MoneyTransfer, error)
}

// TransferSvcFacade combines all transfer service interfaces
type TransferSvcFacade interface {
	TransferReaderSvc
	TransferWriterSvc
}
