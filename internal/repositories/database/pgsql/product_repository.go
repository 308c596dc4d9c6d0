package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
)

type PgxProductRepository struct {
	pool *pgxpool.Pool
}

// newPgxProductRepository creates a new PostgreSQL product repository.
func newPgxProductRepository(pool *pgxpool.Pool) portsrepo.ProductRepositoryFacade {
	return &PgxProductRepository{pool: pool}
}

// Ensure PgxProductRepository implements portsrepo.ProductRepositoryFacade
var _ portsrepo.ProductRepositoryFacade = (*PgxProductRepository)(nil)

const selectProductFields = `
	product_id, sku, name, unit, cost_price, selling_price, stock_quantity, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ProductID,
		&p.SKU,
		&p.Name,
		&p.Unit,
		&p.CostPrice,
		&p.SellingPrice,
		&p.StockQuantity,
		&p.IsActive,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProductByID retrieves a product by its ID.
func (r *PgxProductRepository) FindProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	query := `SELECT ` + selectProductFields + ` FROM products WHERE product_id = $1;`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", apperrors.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to find product by ID %s: %w", productID, err)
	}
	return p, nil
}

// FindProductBySKU retrieves a product by its unique SKU.
func (r *PgxProductRepository) FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + selectProductFields + ` FROM products WHERE sku = $1;`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product with SKU %q", apperrors.ErrNotFound, sku)
		}
		return nil, fmt.Errorf("failed to find product by SKU %q: %w", sku, err)
	}
	return p, nil
}

// FindProductsByIDs retrieves multiple products keyed by ID. IDs that do not
// exist are simply absent from the result map.
func (r *PgxProductRepository) FindProductsByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product)
	if len(productIDs) == 0 {
		return products, nil
	}

	query := `SELECT ` + selectProductFields + ` FROM products WHERE product_id = ANY($1);`

	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products[p.ProductID] = *p
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", rows.Err())
	}
	return products, nil
}

// ListProducts retrieves a paginated list of products ordered by name.
func (r *PgxProductRepository) ListProducts(ctx context.Context, activeOnly bool, limit int, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + selectProductFields + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", rows.Err())
	}
	return products, nil
}

// SaveProduct persists a new product.
func (r *PgxProductRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	query := `
		INSERT INTO products (product_id, sku, name, unit, cost_price, selling_price, stock_quantity, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.pool.Exec(ctx, query,
		product.ProductID,
		product.SKU,
		product.Name,
		product.Unit,
		product.CostPrice,
		product.SellingPrice,
		product.StockQuantity,
		product.IsActive,
		product.CreatedAt,
		product.CreatedBy,
		product.LastUpdatedAt,
		product.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: product with SKU %q already exists", apperrors.ErrDuplicate, product.SKU)
		}
		return fmt.Errorf("failed to save product %s: %w", product.ProductID, err)
	}
	return nil
}

// UpdateProduct updates a product's details. Stock moves only through
// AdjustStock and the sale repository, and the SKU is immutable.
func (r *PgxProductRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, unit = $3, cost_price = $4, selling_price = $5, is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE product_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		product.ProductID,
		product.Name,
		product.Unit,
		product.CostPrice,
		product.SellingPrice,
		product.IsActive,
		product.LastUpdatedAt,
		product.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update product %s: %w", product.ProductID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", apperrors.ErrNotFound, product.ProductID)
	}
	return nil
}

// DeactivateProduct marks a product as inactive.
func (r *PgxProductRepository) DeactivateProduct(ctx context.Context, productID string, userID string, now time.Time) error {
	query := `
		UPDATE products
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE product_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.pool.Exec(ctx, query, productID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %s: %w", productID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindProductByID(ctx, productID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: product %s is already inactive", apperrors.ErrValidation, productID)
	}
	return nil
}

// AdjustStock applies a signed delta to a product's stock in a single
// statement. The guard in the WHERE clause rejects any adjustment that
// would leave the stock negative.
func (r *PgxProductRepository) AdjustStock(ctx context.Context, productID string, delta decimal.Decimal, userID string, now time.Time) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, last_updated_at = $3, last_updated_by = $4
		WHERE product_id = $1 AND stock_quantity + $2 >= 0
		RETURNING ` + selectProductFields + `;`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, productID, delta, now, userID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust stock for product %s: %w", productID, err)
	}

	current, findErr := r.FindProductByID(ctx, productID)
	if findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: product %s has %s in stock, cannot adjust by %s",
		apperrors.ErrInsufficientStock, productID, current.StockQuantity.String(), delta.String())
}
