package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// IncomeCategorySvc defines operations for income categories
type IncomeCategorySvc interface {
	// CreateIncomeCategory persists a new category.
	CreateIncomeCategory(ctx context.Context, req dto.CreateCategoryRequest, userID string) (*domain.IncomeCategory, error)

	// UpdateIncomeCategory updates an existing category.
	UpdateIncomeCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, userID string) (*domain.IncomeCategory, error)

	// ListIncomeCategories retrieves all income categories.
	ListIncomeCategories(ctx context.Context) ([]domain.IncomeCategory, error)
}

// IncomeReaderSvc defines read operations for incomes
type IncomeReaderSvc interface {
	// GetIncomeByID retrieves a specific income by its unique identifier.
	GetIncomeByID(ctx context.Context, incomeID string) (*domain.Income, error)

	// ListIncomes retrieves a paginated list of incomes.
	ListIncomes(ctx context.Context, params dto.ListIncomesParams) (*dto.ListIncomesResponse, error)
}

// IncomeWriterSvc defines write and approval operations for incomes
type IncomeWriterSvc interface {
	// CreateIncome records a new income in PENDING state. Nothing posts yet.
	CreateIncome(ctx context.Context, req dto.CreateIncomeRequest, userID string) (*domain.Income, error)

	// UpdateIncome updates a PENDING income.
	UpdateIncome(ctx context.Context, incomeID string, req dto.UpdateIncomeRequest, userID string) (*domain.Income, error)

	// DeleteIncome removes a PENDING income.
	DeleteIncome(ctx context.Context, incomeID string, userID string) error

	// ApproveIncome transitions PENDING or REJECTED to APPROVED exactly once,
	// then attempts the ledger posting with degraded-success semantics.
	ApproveIncome(ctx context.Context, incomeID string, userID string) (*domain.Income, domain.PostingResult, error)

	// RejectIncome transitions PENDING to REJECTED.
	RejectIncome(ctx context.Context, incomeID string, userID string) (*domain.Income, error)
}

// IncomeSvcFacade combines all income service interfaces
type IncomeSvcFacade interface {
	IncomeCategorySvc
	IncomeReaderSvc
	IncomeWriterSvc
}
