package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// ProductReader defines read operations for product data
type ProductReader interface {
	// FindProductByID retrieves a specific product by its unique identifier.
	FindProductByID(ctx context.Context, productID string) (*domain.Product, error)

	// FindProductBySKU retrieves a product by its unique SKU.
	FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error)

	// FindProductsByIDs retrieves multiple products by their IDs.
	FindProductsByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error)

	// ListProducts retrieves a paginated list of products.
	ListProducts(ctx context.Context, activeOnly bool, limit int, offset int) ([]domain.Product, error)
}

// ProductWriter defines write operations for product data
type ProductWriter interface {
	// SaveProduct persists a new product.
	SaveProduct(ctx context.Context, product domain.Product) error

	// UpdateProduct updates an existing product's details (not its stock).
	UpdateProduct(ctx context.Context, product domain.Product) error

	// DeactivateProduct marks a product as inactive.
	DeactivateProduct(ctx context.Context, productID string, userID string, now time.Time) error

	// AdjustStock applies a signed quantity delta under a row lock.
	// A delta that would take the stock negative fails with
	// ErrInsufficientStock and leaves the row untouched.
	AdjustStock(ctx context.Context, productID string, delta decimal.Decimal, userID string, now time.Time) (*domain.Product, error)
}

// ProductRepositoryFacade combines all product repository interfaces
type ProductRepositoryFacade interface {
	ProductReader
	ProductWriter
}
