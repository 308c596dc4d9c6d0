package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// ProductReaderSvc defines read operations for products
type ProductReaderSvc interface {
	// GetProductByID retrieves a specific product by its unique identifier.
	GetProductByID(ctx context.Context, productID string) (*domain.Product, error)

	// GetProductBySKU retrieves a product by its SKU.
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)

	// GetProductsByIDs retrieves multiple products by their IDs.
	GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error)

	// ListProducts retrieves a paginated list of products.
	ListProducts(ctx context.Context, activeOnly bool, limit int, offset int) ([]domain.Product, error)
}

// ProductWriterSvc defines write operations for products
type ProductWriterSvc interface {
	// CreateProduct persists a new product.
	CreateProduct(ctx context.Context, req dto.CreateProductRequest, userID string) (*domain.Product, error)

	// UpdateProduct updates product details and prices.
	UpdateProduct(ctx context.Context, productID string, req dto.UpdateProductRequest, userID string) (*domain.Product, error)

	// DeactivateProduct marks a product inactive.
	DeactivateProduct(ctx context.Context, productID string, userID string) error

	// AdjustStock changes stock by delta (positive receives, negative writes off).
	// Fails with ErrInsufficientStock when the result would go negative.
	AdjustStock(ctx context.Context, productID string, delta decimal.Decimal, userID string) (*domain.Product, error)
}

// ProductSvcFacade combines all product service interfaces
type ProductSvcFacade interface {
	ProductReaderSvc
	ProductWriterSvc
}
