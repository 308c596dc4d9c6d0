package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CustomerReader defines read operations for customer data
type CustomerReader interface {
	// FindCustomerByID retrieves a specific customer by their unique identifier.
	FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)

	// FindCustomerByPhone retrieves a customer by their unique phone number.
	FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)

	// ListCustomers retrieves a paginated list of customers.
	ListCustomers(ctx context.Context, limit int, offset int) ([]domain.Customer, error)
}

// CustomerWriter defines write operations for customer data
type CustomerWriter interface {
	// SaveCustomer persists a new customer.
	SaveCustomer(ctx context.Context, customer domain.Customer) error

	// UpdateCustomer updates an existing customer's details (not the wallet balance).
	UpdateCustomer(ctx context.Context, customer domain.Customer) error

	// DeactivateCustomer marks a customer as inactive.
	DeactivateCustomer(ctx context.Context, customerID string, userID string, now time.Time) error
}

// WalletLedger defines the wallet mutation primitive and its read side.
type WalletLedger interface {
	// ApplyWalletTransaction locks the customer row, verifies funds for
	// debits, appends the wallet transaction with its balance_after snapshot
	// and updates the cached wallet balance, all in one database transaction.
	// Returns the persisted row including BalanceAfter.
	ApplyWalletTransaction(ctx context.Context, txn domain.CustomerWalletTransaction) (*domain.CustomerWalletTransaction, error)

	// ListWalletTransactions retrieves a customer's wallet statement using
	// token-based pagination, newest first.
	ListWalletTransactions(ctx context.Context, customerID string, limit int, nextToken *string) ([]domain.CustomerWalletTransaction, *string, error)

	// AuditWalletBalances compares every customer's cached wallet balance
	// against the transaction log. Used by the offline validator.
	AuditWalletBalances(ctx context.Context) ([]domain.WalletMismatch, error)
}

// CustomerRepositoryFacade combines all customer-related repository interfaces
type CustomerRepositoryFacade interface {
	CustomerReader
	CustomerWriter
	WalletLedger
}

// CustomerRepositoryWithTx extends CustomerRepositoryFacade with transaction capabilities
type CustomerRepositoryWithTx interface {
	CustomerRepositoryFacade
	TransactionManager
}
