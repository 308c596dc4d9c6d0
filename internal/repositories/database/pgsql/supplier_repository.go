package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
)

type PgxSupplierRepository struct {
	pool *pgxpool.Pool
}

// newPgxSupplierRepository creates a new PostgreSQL supplier repository.
func newPgxSupplierRepository(pool *pgxpool.Pool) portsrepo.SupplierRepositoryFacade {
	return &PgxSupplierRepository{pool: pool}
}

// Ensure PgxSupplierRepository implements portsrepo.SupplierRepositoryFacade
var _ portsrepo.SupplierRepositoryFacade = (*PgxSupplierRepository)(nil)

const selectSupplierFields = `
	supplier_id, name, phone, email, address, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanSupplier(row pgx.Row) (*domain.Supplier, error) {
	var s domain.Supplier
	err := row.Scan(
		&s.SupplierID,
		&s.Name,
		&s.Phone,
		&s.Email,
		&s.Address,
		&s.IsActive,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSupplierByID retrieves a supplier by its ID.
func (r *PgxSupplierRepository) FindSupplierByID(ctx context.Context, supplierID string) (*domain.Supplier, error) {
	query := `SELECT ` + selectSupplierFields + ` FROM suppliers WHERE supplier_id = $1;`

	s, err := scanSupplier(r.pool.QueryRow(ctx, query, supplierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: supplier %s", apperrors.ErrNotFound, supplierID)
		}
		return nil, fmt.Errorf("failed to find supplier by ID %s: %w", supplierID, err)
	}
	return s, nil
}

// ListSuppliers retrieves a paginated list of suppliers ordered by name.
func (r *PgxSupplierRepository) ListSuppliers(ctx context.Context, limit int, offset int) ([]domain.Supplier, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + selectSupplierFields + ` FROM suppliers ORDER BY name LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []domain.Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier row: %w", err)
		}
		suppliers = append(suppliers, *s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating supplier rows: %w", rows.Err())
	}
	return suppliers, nil
}

// SaveSupplier persists a new supplier.
func (r *PgxSupplierRepository) SaveSupplier(ctx context.Context, supplier domain.Supplier) error {
	query := `
		INSERT INTO suppliers (supplier_id, name, phone, email, address, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.pool.Exec(ctx, query,
		supplier.SupplierID,
		supplier.Name,
		supplier.Phone,
		supplier.Email,
		supplier.Address,
		supplier.IsActive,
		supplier.CreatedAt,
		supplier.CreatedBy,
		supplier.LastUpdatedAt,
		supplier.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save supplier %s: %w", supplier.SupplierID, err)
	}
	return nil
}

// UpdateSupplier updates an existing supplier's details.
func (r *PgxSupplierRepository) UpdateSupplier(ctx context.Context, supplier domain.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $2, phone = $3, email = $4, address = $5, is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE supplier_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		supplier.SupplierID,
		supplier.Name,
		supplier.Phone,
		supplier.Email,
		supplier.Address,
		supplier.IsActive,
		supplier.LastUpdatedAt,
		supplier.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update supplier %s: %w", supplier.SupplierID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: supplier %s", apperrors.ErrNotFound, supplier.SupplierID)
	}
	return nil
}

// DeactivateSupplier marks a supplier as inactive.
func (r *PgxSupplierRepository) DeactivateSupplier(ctx context.Context, supplierID string, userID string, now time.Time) error {
	query := `
		UPDATE suppliers
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE supplier_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.pool.Exec(ctx, query, supplierID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate supplier %s: %w", supplierID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindSupplierByID(ctx, supplierID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: supplier %s is already inactive", apperrors.ErrValidation, supplierID)
	}
	return nil
}
