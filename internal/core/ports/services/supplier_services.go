package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// SupplierReaderSvc defines read operations for suppliers
type SupplierReaderSvc interface {
	// GetSupplierByID retrieves a specific supplier by its unique identifier.
	GetSupplierByID(ctx context.Context, supplierID string) (*domain.Supplier, error)

	// ListSuppliers retrieves a paginated list of suppliers.
	ListSuppliers(ctx context.Context, limit int, offset int) ([]domain.Supplier, error)
}

// SupplierWriterSvc defines write operations for suppliers
type SupplierWriterSvc interface {
	// CreateSupplier persists a new supplier.
	CreateSupplier(ctx context.Context, req dto.CreateSupplierRequest, userID string) (*domain.Supplier, error)

	// UpdateSupplier updates supplier details.
	UpdateSupplier(ctx context.Context, supplierID string, req dto.UpdateSupplierRequest, userID string) (*domain.Supplier, error)

	// DeactivateSupplier marks a supplier inactive.
	DeactivateSupplier(ctx context.Context, supplierID string, userID string) error
}

// SupplierSvcFacade combines all supplier service interfaces
type SupplierSvcFacade interface {
	SupplierReaderSvc
	SupplierWriterSvc
}
