package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// SupplierReader defines read operations for supplier data
type SupplierReader interface {
	// FindSupplierByID retrieves a specific supplier by its unique identifier.
	FindSupplierByID(ctx context.Context, supplierID string) (*domain.Supplier, error)

	// ListSuppliers retrieves a paginated list of suppliers.
	ListSuppliers(ctx context.Context, limit int, offset int) ([]domain.Supplier, error)
}

// SupplierWriter defines write operations for supplier data
type SupplierWriter interface {
	// SaveSupplier persists a new supplier.
	SaveSupplier(ctx context.Context, supplier domain.Supplier) error

	// UpdateSupplier updates an existing supplier's details.
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) error

	// DeactivateSupplier marks a supplier as inactive.
	DeactivateSupplier(ctx context.Context, supplierID string, userID string, now time.Time) error
}

// SupplierRepositoryFacade combines all supplier repository interfaces
type SupplierRepositoryFacade interface {
	SupplierReader
	SupplierWriter
}
