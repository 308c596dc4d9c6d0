package services

import (
	"context"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// ExpenseCategorySvc defines operations for expense categories
type ExpenseCategorySvc interface {
	// CreateExpenseCategory persists a new category.
	CreateExpenseCategory(ctx context.Context, req dto.CreateCategoryRequest, userID string) (*domain.ExpenseCategory, error)

	// UpdateExpenseCategory updates an existing category.
	UpdateExpenseCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, userID string) (*domain.ExpenseCategory, error)

	// ListExpenseCategories retrieves all expense categories.
	ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error)
}

// ExpenseReaderSvc defines read operations for expenses
type ExpenseReaderSvc interface {
	// GetExpenseByID retrieves a specific expense by its unique identifier.
	GetExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpenses retrieves a paginated list of expenses.
	ListExpenses(ctx context.Context, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error)
}

// ExpenseWriterSvc defines write and approval operations for expenses
type ExpenseWriterSvc interface {
	// CreateExpense records a new expense in PENDING state. Nothing posts yet.
	CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, userID string) (*domain.Expense, error)

	// UpdateExpense updates a PENDING expense.
	UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, userID string) (*domain.Expense, error)

	// DeleteExpense removes a PENDING expense.
	DeleteExpense(ctx context.Context, expenseID string, userID string) error

	// ApproveExpense transitions PENDING or REJECTED to APPROVED exactly
	// once, then attempts the ledger posting with degraded-success
	// semantics: a posting failure is reported in the result, never rolls
	// back the approval. A second approval fails with ErrAlreadyCompleted.
	ApproveExpense(ctx context.Context, expenseID string, userID string) (*domain.Expense, domain.PostingResult, error)

	// RejectExpense transitions PENDING to REJECTED.
	RejectExpense(ctx context.Context, expenseID string, userID string) (*domain.Expense, error)
}

// ExpenseSvcFacade combines all expense service interfaces
type ExpenseSvcFacade interface {
	ExpenseCategorySvc
	ExpenseReaderSvc
	ExpenseWriterSvc
}
