package services

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// LedgerReaderSvc defines read operations for posted ledger data
type LedgerReaderSvc interface {
	// GetTransactionByID retrieves a transaction together with its entries.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, []domain.JournalEntry, error)

	// ListTransactions retrieves a paginated list of transactions.
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// ListEntriesByAccount retrieves the entry statement for one account.
	ListEntriesByAccount(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerWriterSvc defines the posting engine's write operations
type LedgerWriterSvc interface {
	// PostTransaction validates and atomically posts a balanced transaction.
	PostTransaction(ctx context.Context, req dto.PostTransactionRequest, creatorUserID string) (*domain.Transaction, error)

	// ReverseTransaction posts an equal-and-opposite transaction and links
	// the pair; the original is marked REVERSED.
	ReverseTransaction(ctx context.Context, transactionID string, userID string) (*domain.Transaction, error)
}

// LedgerPoster is the narrow capability handed to approval flows. The
// returned PostingResult never carries an error upward: a failed posting is
// reported as Posted=false so the caller's primary state change stands.
type LedgerPoster interface {
	// PostForReference posts a balanced transaction tagged with the given
	// origin reference, degrading failures into the result.
	PostForReference(ctx context.Context, ref domain.Reference, date time.Time, description string, entries []domain.EntryInput, branchID string, userID string) domain.PostingResult
}

// LedgerSvcFacade combines all ledger service interfaces
// This is a facade for clients that need access to all operations
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}

// LedgerValidationSvc runs the offline consistency audit across both
// ledgers. Findings are diagnostic report data, never errors.
type LedgerValidationSvc interface {
	// RunValidation executes every check and assembles the report.
	RunValidation(ctx context.Context) (*domain.LedgerValidationReport, error)
}
