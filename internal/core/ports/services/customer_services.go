package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// CustomerReaderSvc defines read operations for customer data
type CustomerReaderSvc interface {
	// GetCustomerByID retrieves a specific customer by their unique identifier.
	GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)

	// ListCustomers retrieves a paginated list of customers.
	ListCustomers(ctx context.Context, limit int, offset int) ([]domain.Customer, error)
}

// CustomerWriterSvc defines write operations for customer data
type CustomerWriterSvc interface {
	// CreateCustomer persists a new customer.
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, userID string) (*domain.Customer, error)

	// UpdateCustomer updates an existing customer's details.
	UpdateCustomer(ctx context.Context, customerID string, req dto.UpdateCustomerRequest, userID string) (*domain.Customer, error)

	// DeactivateCustomer marks a customer as inactive.
	DeactivateCustomer(ctx context.Context, customerID string, userID string) error
}

// WalletSvc is the single gateway for every wallet movement: manual
// adjustments, sale payments, overpayment credits and refunds all route
// through ApplyWalletTransaction.
type WalletSvc interface {
	// ApplyWalletTransaction applies one credit or debit to a customer's
	// wallet. Debits exceeding the wallet balance fail with
	// ErrInsufficientFunds and leave no partial effect.
	ApplyWalletTransaction(ctx context.Context, customerID string, req dto.ApplyWalletTransactionRequest, userID string) (*domain.CustomerWalletTransaction, error)

	// ListWalletTransactions retrieves a customer's wallet statement.
	ListWalletTransactions(ctx context.Context, customerID string, params dto.ListWalletTransactionsParams) (*dto.ListWalletTransactionsResponse, error)
}

// CustomerSvcFacade combines all customer-related service interfaces
type CustomerSvcFacade interface {
	CustomerReaderSvc
	CustomerWriterSvc
	WalletSvc
}
