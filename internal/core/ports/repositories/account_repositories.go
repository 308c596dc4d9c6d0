package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// AccountListFilter narrows ListAccounts results.
type AccountListFilter struct {
	AccountTypeCode *domain.AccountTypeCode
	ActiveOnly      bool
}

// AccountReader defines read operations for chart-of-accounts data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its human chart code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts.
	ListAccounts(ctx context.Context, filter AccountListFilter, limit int, offset int) ([]domain.Account, error)

	// ListAccountTypes retrieves the seeded account type reference rows.
	ListAccountTypes(ctx context.Context) ([]domain.AccountType, error)

	// FindAccountTypesByCodes retrieves account types keyed by code.
	FindAccountTypesByCodes(ctx context.Context, codes []domain.AccountTypeCode) (map[domain.AccountTypeCode]domain.AccountType, error)

	// FindDefaultAccountID resolves a chart-default role to its account ID.
	FindDefaultAccountID(ctx context.Context, role domain.AccountRole) (string, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's details (not its balance).
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error

	// SetDefaultAccount points a chart-default role at an account.
	SetDefaultAccount(ctx context.Context, role domain.AccountRole, accountID string) error
}

// AccountBalanceSupport defines the balance computation and posting-support
// operations the ledger relies on.
type AccountBalanceSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them for update within a transaction.
	// IDs are locked in sorted order to avoid deadlocks between concurrent postings.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalancesInTx applies signed balance deltas to multiple accounts within a given transaction.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error

	// ComputeBalance derives opening_balance plus the signed entry sum,
	// optionally cut off at asOf (inclusive). The cache is not touched.
	ComputeBalance(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error)

	// RecomputeBalance recomputes the balance from entries under a row lock
	// and overwrites the cached current_balance, reporting the correction.
	RecomputeBalance(ctx context.Context, accountID string, userID string, now time.Time) (*domain.BalanceResult, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
// This is a facade for clients that need access to all operations
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountBalanceSupport
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
