package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// SaleListFilter narrows ListSales results.
type SaleListFilter struct {
	CustomerID    *string
	PaymentStatus *domain.PaymentStatus
	From          *time.Time
	To            *time.Time
}

// SaleReader defines read operations for sales
type SaleReader interface {
	// FindSaleByID retrieves a sale with its items and payments.
	FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, []domain.SaleItem, []domain.SalePayment, error)

	// ListSales retrieves a paginated list of sales using token-based pagination.
	ListSales(ctx context.Context, filter SaleListFilter, limit int, nextToken *string) ([]domain.Sale, *string, error)
}

// SaleWriter defines write operations for sales.
// Both mutations are coarse atomic operations: everything inside runs in a
// single database transaction or not at all.
type SaleWriter interface {
	// SaveSale persists a sale with its items and initial payments,
	// decrements product stock (rows locked in sorted order; going negative
	// fails with ErrInsufficientStock) and applies any wallet movements
	// (payment debits, overpayment credits) through the wallet ledger rules.
	SaveSale(ctx context.Context, sale domain.Sale, items []domain.SaleItem, payments []domain.SalePayment, walletTxns []domain.CustomerWalletTransaction) error

	// AddSalePayment appends a payment to an existing sale, recomputes the
	// paid amount and payment status under the sale's row lock, and applies
	// an optional wallet debit for WALLET payments, atomically. A payment
	// exceeding the outstanding amount fails with ErrInvalidAmount.
	AddSalePayment(ctx context.Context, saleID string, payment domain.SalePayment, walletTxn *domain.CustomerWalletTransaction) (*domain.Sale, error)

	// SetLedgerTransactionID records the posting produced for a sale.
	SetLedgerTransactionID(ctx context.Context, saleID string, ledgerTransactionID string) error
}

// SaleRepositoryFacade combines all sale repository interfaces
type SaleRepositoryFacade interface {
	SaleReader
	SaleWriter
}

// SaleRepositoryWithTx extends SaleRepositoryFacade with transaction capabilities
type SaleRepositoryWithTx interface {
	SaleRepositoryFacade
	TransactionManager
}
