package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// productService implements the ProductSvcFacade interface.
type productService struct {
	BaseService
	productRepo portsrepo.ProductRepositoryFacade
}

// NewProductService creates a new product service instance.
func NewProductService(productRepo portsrepo.ProductRepositoryFacade) portssvc.ProductSvcFacade {
	return &productService{productRepo: productRepo}
}

var _ portssvc.ProductSvcFacade = (*productService)(nil)

// CreateProduct persists a new product.
func (s *productService) CreateProduct(ctx context.Context, req dto.CreateProductRequest, userID string) (*domain.Product, error) {
	if req.CostPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices must not be negative", apperrors.ErrValidation)
	}
	if req.StockQuantity.IsNegative() {
		return nil, fmt.Errorf("%w: initial stock must not be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	product := domain.Product{
		ProductID:     uuid.NewString(),
		SKU:           req.SKU,
		Name:          req.Name,
		Unit:          req.Unit,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
	}
	product.Touch(userID, now)

	if err := s.productRepo.SaveProduct(ctx, product); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: product with SKU %q already exists", apperrors.ErrDuplicate, req.SKU)
		}
		s.LogError(ctx, err, "Failed to save product")
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.LogInfo(ctx, "Product created", "product_id", product.ProductID, "sku", product.SKU)
	return &product, nil
}

// GetProductByID retrieves a specific product by its unique identifier.
func (s *productService) GetProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product %s: %w", productID, err)
	}
	return product, nil
}

// GetProductBySKU retrieves a product by its SKU.
func (s *productService) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	product, err := s.productRepo.FindProductBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to find product with SKU %s: %w", sku, err)
	}
	return product, nil
}

// GetProductsByIDs retrieves multiple products by their IDs.
func (s *productService) GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	products, err := s.productRepo.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// ListProducts retrieves a paginated list of products.
func (s *productService) ListProducts(ctx context.Context, activeOnly bool, limit int, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.ListProducts(ctx, activeOnly, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct updates product details and prices. Stock moves only
// through sales and AdjustStock.
func (s *productService) UpdateProduct(ctx context.Context, productID string, req dto.UpdateProductRequest, userID string) (*domain.Product, error) {
	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product %s: %w", productID, err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, fmt.Errorf("%w: cost price must not be negative", apperrors.ErrValidation)
		}
		product.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return nil, fmt.Errorf("%w: selling price must not be negative", apperrors.ErrValidation)
		}
		product.SellingPrice = *req.SellingPrice
	}
	product.MarkUpdated(userID, time.Now().UTC())

	if err := s.productRepo.UpdateProduct(ctx, *product); err != nil {
		s.LogError(ctx, err, "Failed to update product", "product_id", productID)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeactivateProduct marks a product inactive.
func (s *productService) DeactivateProduct(ctx context.Context, productID string, userID string) error {
	if _, err := s.productRepo.FindProductByID(ctx, productID); err != nil {
		return fmt.Errorf("failed to find product %s: %w", productID, err)
	}

	if err := s.productRepo.DeactivateProduct(ctx, productID, userID, time.Now().UTC()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate product", "product_id", productID)
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	s.LogInfo(ctx, "Product deactivated", "product_id", productID, "deactivated_by", userID)
	return nil
}

// AdjustStock changes stock by delta. The repository applies the delta
// under a row lock, so concurrent adjustments and sales never take the
// quantity below zero.
func (s *productService) AdjustStock(ctx context.Context, productID string, delta decimal.Decimal, userID string) (*domain.Product, error) {
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: stock delta must not be zero", apperrors.ErrValidation)
	}

	product, err := s.productRepo.AdjustStock(ctx, productID, delta, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientStock) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to adjust stock", "product_id", productID, "delta", delta.String())
		return nil, fmt.Errorf("failed to adjust stock for product %s: %w", productID, err)
	}

	s.LogInfo(ctx, "Stock adjusted", "product_id", productID, "delta", delta.String(), "stock_quantity", product.StockQuantity.String())
	return product, nil
}
