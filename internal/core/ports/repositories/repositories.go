package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for database transaction control.
// Repositories that expose multi-step atomic operations implement it.
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	LedgerRepo      LedgerRepositoryFacade
	CustomerRepo    CustomerRepositoryFacade
	BankAccountRepo BankAccountRepositoryFacade
	TransferRepo    TransferRepositoryFacade
	ExpenseRepo     ExpenseRepositoryFacade
	IncomeRepo      IncomeRepositoryFacade
	ProductRepo     ProductRepositoryFacade
	SupplierRepo    SupplierRepositoryFacade
	SaleRepo        SaleRepositoryFacade
	UserRepo        UserRepositoryFacade
	APITokenRepo    APITokenRepository
}
