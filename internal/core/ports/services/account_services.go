package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// AccountReaderSvc defines read operations for chart-of-accounts data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByCode retrieves an account by its human chart code.
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts by their IDs.
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts.
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error)

	// ListAccountTypes retrieves the seeded account type rows.
	ListAccountTypes(ctx context.Context) ([]domain.AccountType, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive; postings against it are rejected from then on.
	DeactivateAccount(ctx context.Context, accountID string, userID string) error

	// SetDefaultAccount points a chart-default role at an account. Posting
	// recipes resolve their counterpart accounts through these defaults.
	SetDefaultAccount(ctx context.Context, role domain.AccountRole, accountID string, userID string) error
}

// AccountBalanceSvc defines the balance read and recompute contract.
type AccountBalanceSvc interface {
	// GetBalance returns the cached balance, or the balance recomputed as of
	// the given date when asOf is non-nil. The cache is never written here.
	GetBalance(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error)

	// RecomputeBalance rebuilds the cached balance from the entry log and
	// reports whether a divergence was corrected.
	RecomputeBalance(ctx context.Context, accountID string, userID string) (*domain.BalanceResult, error)
}

// AccountResolver resolves well-known chart roles for posting recipes.
// Kept narrow so approval services do not depend on the full account surface.
type AccountResolver interface {
	// ResolveDefaultAccount returns the active account configured for the role.
	ResolveDefaultAccount(ctx context.Context, role domain.AccountRole) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
// This is a facade for clients that need access to all operations
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountBalanceSvc
	AccountResolver
}
