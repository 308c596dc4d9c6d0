package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// BankAccountReader defines read operations for bank account data
type BankAccountReader interface {
	// FindBankAccountByID retrieves a specific bank account by its unique identifier.
	FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)

	// FindBankAccountsByIDs retrieves multiple bank accounts by their IDs.
	FindBankAccountsByIDs(ctx context.Context, bankAccountIDs []string) (map[string]domain.BankAccount, error)

	// ListBankAccounts retrieves a paginated list of bank accounts.
	ListBankAccounts(ctx context.Context, limit int, offset int) ([]domain.BankAccount, error)
}

// BankAccountWriter defines write operations for bank account data
type BankAccountWriter interface {
	// SaveBankAccount persists a new bank account.
	SaveBankAccount(ctx context.Context, bankAccount domain.BankAccount) error

	// UpdateBankAccount updates an existing bank account's details (not its balance).
	UpdateBankAccount(ctx context.Context, bankAccount domain.BankAccount) error

	// DeactivateBankAccount marks a bank account as inactive.
	DeactivateBankAccount(ctx context.Context, bankAccountID string, userID string, now time.Time) error
}

// BankAccountRepositoryFacade combines all bank-account repository interfaces
type BankAccountRepositoryFacade interface {
	BankAccountReader
	BankAccountWriter
}
