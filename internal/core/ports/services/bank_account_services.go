package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// BankAccountReaderSvc defines read operations for bank accounts
type BankAccountReaderSvc interface {
	// GetBankAccountByID retrieves a specific bank account by its unique identifier.
	GetBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)

	// ListBankAccounts retrieves all bank accounts.
	ListBankAccounts(ctx context.Context, activeOnly bool) ([]domain.BankAccount, error)
}

// BankAccountWriterSvc defines write operations for bank accounts
type BankAccountWriterSvc interface {
	// CreateBankAccount persists a new bank account together with its
	// linked asset ledger account.
	CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error)

	// UpdateBankAccount updates bank account details.
	UpdateBankAccount(ctx context.Context, bankAccountID string, req dto.UpdateBankAccountRequest, userID string) (*domain.BankAccount, error)

	// DeactivateBankAccount marks a bank account inactive.
	DeactivateBankAccount(ctx context.Context, bankAccountID string, userID string) error
}

// BankAccountSvcFacade combines all bank account service interfaces
type BankAccountSvcFacade interface {
	BankAccountReaderSvc
	BankAccountWriterSvc
}
