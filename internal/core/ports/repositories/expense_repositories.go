package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// ExpenseListFilter narrows ListExpenses results.
type ExpenseListFilter struct {
	Status     *domain.ApprovalStatus
	CategoryID *string
	From       *time.Time
	To         *time.Time
}

// ExpenseCategoryReader defines read operations for expense categories
type ExpenseCategoryReader interface {
	// FindExpenseCategoryByID retrieves a category by its unique identifier.
	FindExpenseCategoryByID(ctx context.Context, categoryID string) (*domain.ExpenseCategory, error)

	// ListExpenseCategories retrieves all expense categories.
	ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error)
}

// ExpenseCategoryWriter defines write operations for expense categories
type ExpenseCategoryWriter interface {
	// SaveExpenseCategory persists a new category.
	SaveExpenseCategory(ctx context.Context, category domain.ExpenseCategory) error

	// UpdateExpenseCategory updates an existing category.
	UpdateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) error
}

// ExpenseReader defines read operations for expenses
type ExpenseReader interface {
	// FindExpenseByID retrieves a specific expense by its unique identifier.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpenses retrieves a paginated list of expenses using token-based pagination.
	ListExpenses(ctx context.Context, filter ExpenseListFilter, limit int, nextToken *string) ([]domain.Expense, *string, error)
}

// ExpenseWriter defines write and approval-transition operations for expenses
type ExpenseWriter interface {
	// SaveExpense persists a new expense in PENDING state.
	SaveExpense(ctx context.Context, expense domain.Expense) error

	// UpdateExpense updates a PENDING expense's editable fields.
	UpdateExpense(ctx context.Context, expense domain.Expense) error

	// DeleteExpense removes a PENDING expense.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ApproveExpense moves PENDING or REJECTED to APPROVED via a conditional
	// UPDATE; a lost race surfaces as ErrAlreadyCompleted or ErrInvalidTransition.
	ApproveExpense(ctx context.Context, expenseID string, approverID string, now time.Time) (*domain.Expense, error)

	// RejectExpense moves PENDING to REJECTED via a conditional UPDATE.
	RejectExpense(ctx context.Context, expenseID string, userID string, now time.Time) (*domain.Expense, error)

	// SetLedgerTransactionID records the posting produced for an approved expense.
	SetLedgerTransactionID(ctx context.Context, expenseID string, ledgerTransactionID string) error
}

// ExpenseRepositoryFacade combines all expense repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseCategoryReader
	ExpenseCategoryWriter
	ExpenseReader
	ExpenseWriter
}
