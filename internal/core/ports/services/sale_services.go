package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// SaleReaderSvc defines read operations for sales
type SaleReaderSvc interface {
	// GetSaleByID retrieves a sale along with its items and payments.
	GetSaleByID(ctx context.Context, saleID string) (*dto.SaleDetailResponse, error)

	// ListSales retrieves a paginated list of sales.
	ListSales(ctx context.Context, params dto.ListSalesParams) (*dto.ListSalesResponse, error)
}

// SaleWriterSvc defines write operations for sales
type SaleWriterSvc interface {
	// CreateSale records a sale atomically: stock is decremented, wallet
	// payments are debited, outstanding amounts go to receivables, and the
	// ledger posting is attempted with degraded-success semantics.
	CreateSale(ctx context.Context, req dto.CreateSaleRequest, userID string) (*dto.SaleDetailResponse, domain.PostingResult, error)

	// AddSalePayment records an additional payment against a sale with an
	// outstanding amount and posts the settlement to the ledger.
	AddSalePayment(ctx context.Context, saleID string, req dto.AddSalePaymentRequest, userID string) (*domain.Sale, domain.PostingResult, error)
}

// SaleSvcFacade combines all sale service interfaces
type SaleSvcFacade interface {
	SaleReaderSvc
	SaleWriterSvc
}
