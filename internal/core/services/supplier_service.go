package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// supplierService implements the SupplierSvcFacade interface.
type supplierService struct {
	BaseService
	supplierRepo portsrepo.SupplierRepositoryFacade
}

// NewSupplierService creates a new supplier service instance.
func NewSupplierService(supplierRepo portsrepo.SupplierRepositoryFacade) portssvc.SupplierSvcFacade {
	return &supplierService{supplierRepo: supplierRepo}
}

var _ portssvc.SupplierSvcFacade = (*supplierService)(nil)

// CreateSupplier persists a new supplier.
func (s *supplierService) CreateSupplier(ctx context.Context, req dto.CreateSupplierRequest, userID string) (*domain.Supplier, error) {
	now := time.Now().UTC()
	supplier := domain.Supplier{
		SupplierID: uuid.NewString(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		IsActive:   true,
	}
	supplier.Touch(userID, now)

	if err := s.supplierRepo.SaveSupplier(ctx, supplier); err != nil {
		s.LogError(ctx, err, "Failed to save supplier")
		return nil, fmt.Errorf("failed to save supplier: %w", err)
	}

	s.LogInfo(ctx, "Supplier created", "supplier_id", supplier.SupplierID, "name", supplier.Name)
	return &supplier, nil
}

// GetSupplierByID retrieves a specific supplier by its unique identifier.
func (s *supplierService) GetSupplierByID(ctx context.Context, supplierID string) (*domain.Supplier, error) {
	supplier, err := s.supplierRepo.FindSupplierByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier %s: %w", supplierID, err)
	}
	return supplier, nil
}

// ListSuppliers retrieves a paginated list of suppliers.
func (s *supplierService) ListSuppliers(ctx context.Context, limit int, offset int) ([]domain.Supplier, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	suppliers, err := s.supplierRepo.ListSuppliers(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list suppliers")
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

// UpdateSupplier updates supplier details.
func (s *supplierService) UpdateSupplier(ctx context.Context, supplierID string, req dto.UpdateSupplierRequest, userID string) (*domain.Supplier, error) {
	supplier, err := s.supplierRepo.FindSupplierByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier %s: %w", supplierID, err)
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	supplier.MarkUpdated(userID, time.Now().UTC())

	if err := s.supplierRepo.UpdateSupplier(ctx, *supplier); err != nil {
		s.LogError(ctx, err, "Failed to update supplier", "supplier_id", supplierID)
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

// DeactivateSupplier marks a supplier inactive.
func (s *supplierService) DeactivateSupplier(ctx context.Context, supplierID string, userID string) error {
	if _, err := s.supplierRepo.FindSupplierByID(ctx, supplierID); err != nil {
		return fmt.Errorf("failed to find supplier %s: %w", supplierID, err)
	}

	if err := s.supplierRepo.DeactivateSupplier(ctx, supplierID, userID, time.Now().UTC()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate supplier", "supplier_id", supplierID)
		return fmt.Errorf("failed to deactivate supplier: %w", err)
	}

	s.LogInfo(ctx, "Supplier deactivated", "supplier_id", supplierID, "deactivated_by", userID)
	return nil
}
