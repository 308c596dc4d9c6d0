package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	"github.com/shopledger/shopledger_backend/internal/utils/pagination"
)

type PgxExpenseRepository struct {
	pool *pgxpool.Pool
}

// newPgxExpenseRepository creates a new repository for expense categories and
// expense records.
func newPgxExpenseRepository(pool *pgxpool.Pool) portsrepo.ExpenseRepositoryFacade {
	return &PgxExpenseRepository{pool: pool}
}

// Ensure PgxExpenseRepository implements portsrepo.ExpenseRepositoryFacade
var _ portsrepo.ExpenseRepositoryFacade = (*PgxExpenseRepository)(nil)

const selectExpenseCategoryFields = `
	category_id, name, description, ledger_account_id,
	created_at, created_by, last_updated_at, last_updated_by`

const selectExpenseFields = `
	expense_id, category_id, amount, expense_date, description,
	paid_from_bank_account_id, status, approved_by, approved_at,
	ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by`

func scanExpenseCategory(row pgx.Row) (*domain.ExpenseCategory, error) {
	var c domain.ExpenseCategory
	err := row.Scan(
		&c.CategoryID,
		&c.Name,
		&c.Description,
		&c.LedgerAccountID,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(
		&e.ExpenseID,
		&e.CategoryID,
		&e.Amount,
		&e.ExpenseDate,
		&e.Description,
		&e.PaidFromBankAccountID,
		&e.Status,
		&e.ApprovedBy,
		&e.ApprovedAt,
		&e.LedgerTransactionID,
		&e.BranchID,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindExpenseCategoryByID retrieves a category by its ID.
func (r *PgxExpenseRepository) FindExpenseCategoryByID(ctx context.Context, categoryID string) (*domain.ExpenseCategory, error) {
	query := `SELECT ` + selectExpenseCategoryFields + ` FROM expense_categories WHERE category_id = $1;`

	c, err := scanExpenseCategory(r.pool.QueryRow(ctx, query, categoryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: expense category %s", apperrors.ErrNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to find expense category by ID %s: %w", categoryID, err)
	}
	return c, nil
}

// ListExpenseCategories retrieves all expense categories.
func (r *PgxExpenseRepository) ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	query := `SELECT ` + selectExpenseCategoryFields + ` FROM expense_categories ORDER BY name;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.ExpenseCategory{}
	for rows.Next() {
		c, err := scanExpenseCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense category rows: %w", rows.Err())
	}
	return categories, nil
}

// SaveExpenseCategory persists a new category.
func (r *PgxExpenseRepository) SaveExpenseCategory(ctx context.Context, category domain.ExpenseCategory) error {
	query := `
		INSERT INTO expense_categories (category_id, name, description, ledger_account_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.pool.Exec(ctx, query,
		category.CategoryID,
		category.Name,
		category.Description,
		category.LedgerAccountID,
		category.CreatedAt,
		category.CreatedBy,
		category.LastUpdatedAt,
		category.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: expense category %q already exists", apperrors.ErrDuplicate, category.Name)
		}
		return fmt.Errorf("failed to save expense category %s: %w", category.CategoryID, err)
	}
	return nil
}

// UpdateExpenseCategory updates an existing category.
func (r *PgxExpenseRepository) UpdateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) error {
	query := `
		UPDATE expense_categories
		SET name = $2, description = $3, ledger_account_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE category_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		category.CategoryID,
		category.Name,
		category.Description,
		category.LedgerAccountID,
		category.LastUpdatedAt,
		category.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: expense category %q already exists", apperrors.ErrDuplicate, category.Name)
		}
		return fmt.Errorf("failed to execute update expense category %s: %w", category.CategoryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expense category %s", apperrors.ErrNotFound, category.CategoryID)
	}
	return nil
}

// FindExpenseByID retrieves an expense by its ID.
func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + selectExpenseFields + ` FROM expenses WHERE expense_id = $1;`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}
	return e, nil
}

// ListExpenses retrieves a paginated list of expenses, newest first.
func (r *PgxExpenseRepository) ListExpenses(ctx context.Context, filter portsrepo.ExpenseListFilter, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectExpenseFields + ` FROM expenses`
	conditions := []string{}
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, "category_id = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, "expense_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, "expense_date <= $"+strconv.Itoa(len(args)))
	}
	if nextToken != nil && *nextToken != "" {
		expenseDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, expenseDate, createdAt)
		conditions = append(conditions, fmt.Sprintf("(expense_date, created_at) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += " ORDER BY expense_date DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(expenses) > limit {
		expenses = expenses[:limit]
		last := expenses[limit-1]
		token := pagination.EncodeToken(last.ExpenseDate, last.CreatedAt)
		nextPageToken = &token
	}
	return expenses, nextPageToken, nil
}

// SaveExpense persists a new expense in PENDING state.
func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	query := `
		INSERT INTO expenses (expense_id, category_id, amount, expense_date, description, paid_from_bank_account_id, status, approved_by, approved_at, ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.pool.Exec(ctx, query,
		expense.ExpenseID,
		expense.CategoryID,
		expense.Amount,
		expense.ExpenseDate,
		expense.Description,
		expense.PaidFromBankAccountID,
		expense.Status,
		expense.ApprovedBy,
		expense.ApprovedAt,
		expense.LedgerTransactionID,
		expense.BranchID,
		expense.CreatedAt,
		expense.CreatedBy,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense %s: %w", expense.ExpenseID, err)
	}
	return nil
}

// UpdateExpense updates a PENDING expense's editable fields. The status guard
// in the WHERE clause keeps a concurrent approval from being overwritten.
func (r *PgxExpenseRepository) UpdateExpense(ctx context.Context, expense domain.Expense) error {
	query := `
		UPDATE expenses
		SET category_id = $2, amount = $3, expense_date = $4, description = $5, paid_from_bank_account_id = $6, last_updated_at = $7, last_updated_by = $8
		WHERE expense_id = $1 AND status = $9;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		expense.ExpenseID,
		expense.CategoryID,
		expense.Amount,
		expense.ExpenseDate,
		expense.Description,
		expense.PaidFromBankAccountID,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
		domain.ApprovalPending,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update expense %s: %w", expense.ExpenseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindExpenseByID(ctx, expense.ExpenseID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: expense %s is no longer PENDING", apperrors.ErrValidation, expense.ExpenseID)
	}
	return nil
}

// DeleteExpense removes a PENDING expense.
func (r *PgxExpenseRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	query := `DELETE FROM expenses WHERE expense_id = $1 AND status = $2;`

	cmdTag, err := r.pool.Exec(ctx, query, expenseID, domain.ApprovalPending)
	if err != nil {
		return fmt.Errorf("failed to delete expense %s: %w", expenseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindExpenseByID(ctx, expenseID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: expense %s is no longer PENDING", apperrors.ErrValidation, expenseID)
	}
	return nil
}

// ApproveExpense moves PENDING or REJECTED to APPROVED via a conditional
// UPDATE; losing the race to another approver comes back as ErrAlreadyCompleted.
func (r *PgxExpenseRepository) ApproveExpense(ctx context.Context, expenseID string, approverID string, now time.Time) (*domain.Expense, error) {
	query := `
		UPDATE expenses
		SET status = $2, approved_by = $3, approved_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE expense_id = $1 AND status = ANY($5)
		RETURNING ` + selectExpenseFields + `;`

	approvable := []string{string(domain.ApprovalPending), string(domain.ApprovalRejected)}
	e, err := scanExpense(r.pool.QueryRow(ctx, query, expenseID, domain.ApprovalApproved, approverID, now, approvable))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to approve expense %s: %w", expenseID, err)
	}

	if _, findErr := r.FindExpenseByID(ctx, expenseID); findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: expense %s is already approved", apperrors.ErrAlreadyCompleted, expenseID)
}

// RejectExpense moves PENDING to REJECTED via a conditional UPDATE.
func (r *PgxExpenseRepository) RejectExpense(ctx context.Context, expenseID string, userID string, now time.Time) (*domain.Expense, error) {
	query := `
		UPDATE expenses
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE expense_id = $1 AND status = $5
		RETURNING ` + selectExpenseFields + `;`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, expenseID, domain.ApprovalRejected, now, userID, domain.ApprovalPending))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to reject expense %s: %w", expenseID, err)
	}

	current, findErr := r.FindExpenseByID(ctx, expenseID)
	if findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: expense %s is already %s", apperrors.ErrAlreadyCompleted, expenseID, strings.ToLower(string(current.Status)))
}

// SetLedgerTransactionID records the posting produced for an approved expense.
func (r *PgxExpenseRepository) SetLedgerTransactionID(ctx context.Context, expenseID string, ledgerTransactionID string) error {
	query := `UPDATE expenses SET ledger_transaction_id = $2 WHERE expense_id = $1;`

	cmdTag, err := r.pool.Exec(ctx, query, expenseID, ledgerTransactionID)
	if err != nil {
		return fmt.Errorf("failed to set ledger transaction for expense %s: %w", expenseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
	}
	return nil
}
