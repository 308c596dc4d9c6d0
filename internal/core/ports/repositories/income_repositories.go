package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// IncomeListFilter narrows ListIncomes results.
type IncomeListFilter struct {
	Status     *domain.ApprovalStatus
	CategoryID *string
	From       *time.Time
	To         *time.Time
}

// IncomeCategoryReader defines read operations for income categories
type IncomeCategoryReader interface {
	// FindIncomeCategoryByID retrieves a category by its unique identifier.
	FindIncomeCategoryByID(ctx context.Context, categoryID string) (*domain.IncomeCategory, error)

	// ListIncomeCategories retrieves all income categories.
	ListIncomeCategories(ctx context.Context) ([]domain.IncomeCategory, error)
}

// IncomeCategoryWriter defines write operations for income categories
type IncomeCategoryWriter interface {
	// SaveIncomeCategory persists a new category.
	SaveIncomeCategory(ctx context.Context, category domain.IncomeCategory) error

	// UpdateIncomeCategory updates an existing category.
	UpdateIncomeCategory(ctx context.Context, category domain.IncomeCategory) error
}

// IncomeReader defines read operations for incomes
type IncomeReader interface {
	// FindIncomeByID retrieves a specific income by its unique identifier.
	FindIncomeByID(ctx context.Context, incomeID string) (*domain.Income, error)

	// ListIncomes retrieves a paginated list of incomes using token-based pagination.
	ListIncomes(ctx context.Context, filter IncomeListFilter, limit int, nextToken *string) ([]domain.Income, *string, error)
}

// IncomeWriter defines write and approval-transition operations for incomes
type IncomeWriter interface {
	// SaveIncome persists a new income in PENDING state.
	SaveIncome(ctx context.Context, income domain.Income) error

	// UpdateIncome updates a PENDING income's editable fields.
	UpdateIncome(ctx context.Context, income domain.Income) error

	// DeleteIncome removes a PENDING income.
	DeleteIncome(ctx context.Context, incomeID string) error

	// ApproveIncome moves PENDING or REJECTED to APPROVED via a conditional UPDATE.
	ApproveIncome(ctx context.Context, incomeID string, approverID string, now time.Time) (*domain.Income, error)

	// RejectIncome moves PENDING to REJECTED via a conditional UPDATE.
	RejectIncome(ctx context.Context, incomeID string, userID string, now time.Time) (*domain.Income, error)

	// SetLedgerTransactionID records the posting produced for an approved income.
	SetLedgerTransactionID(ctx context.Context, incomeID string, ledgerTransactionID string) error
}

// IncomeRepositoryFacade combines all income repository interfaces
type IncomeRepositoryFacade interface {
	IncomeCategoryReader
	IncomeCategoryWriter
	IncomeReader
	IncomeWriter
}
