package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// TransactionReader defines read operations for posted transactions
type TransactionReader interface {
	// FindTransactionByID retrieves a specific transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a paginated list of transactions using token-based pagination.
	// It returns the transactions, a token for the next page, and an error.
	ListTransactions(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.Transaction, *string, error)
}

// TransactionWriter defines write operations for posted transactions
type TransactionWriter interface {
	// SaveTransaction persists a transaction and its entries, updating cached
	// account balances, all within one database transaction.
	SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal) error

	// SaveReversal persists the reversing transaction and flips the original
	// from POSTED to REVERSED in the same database transaction. The status
	// flip is conditional; if the original is no longer POSTED the whole
	// write rolls back with ErrAlreadyCompleted.
	SaveReversal(ctx context.Context, reversing domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal, originalTransactionID string) error
}

// EntryReader defines read operations for journal entry lines
type EntryReader interface {
	// FindEntriesByTransactionID retrieves all entries belonging to a single transaction.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.JournalEntry, error)

	// FindEntriesByTransactionIDs retrieves entries for multiple transactions, grouped by transaction ID.
	FindEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.JournalEntry, error)

	// ListEntriesByAccountID retrieves a paginated list of entries for a specific account using token-based pagination.
	ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// LedgerAuditReader defines the aggregate queries behind the offline validator.
// None of these mutate anything.
type LedgerAuditReader interface {
	// FindUnbalancedTransactions reports transactions whose debit and credit totals differ.
	FindUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error)

	// SumEntryTotals returns the system-wide debit and credit totals.
	SumEntryTotals(ctx context.Context) (debits decimal.Decimal, credits decimal.Decimal, err error)

	// ComputeAccountBalanceAudits recomputes every account's balance from its
	// entries (opening included) alongside the cached value, one row per account.
	ComputeAccountBalanceAudits(ctx context.Context) ([]domain.AccountBalanceAudit, error)
}

// LedgerRepositoryFacade combines all ledger repository interfaces
// This is a facade for clients that need access to all operations
type LedgerRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	EntryReader
	LedgerAuditReader
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
