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

type PgxIncomeRepository struct {
	pool *pgxpool.Pool
}

// newPgxIncomeRepository creates a new repository for income categories and
// income records. It mirrors the expense repository on the receiving side.
func newPgxIncomeRepository(pool *pgxpool.Pool) portsrepo.IncomeRepositoryFacade {
	return &PgxIncomeRepository{pool: pool}
}

// Ensure PgxIncomeRepository implements portsrepo.IncomeRepositoryFacade
var _ portsrepo.IncomeRepositoryFacade = (*PgxIncomeRepository)(nil)

const selectIncomeCategoryFields = `
	category_id, name, description, ledger_account_id,
	created_at, created_by, last_updated_at, last_updated_by`

const selectIncomeFields = `
	income_id, category_id, amount, income_date, description,
	received_in_bank_account_id, status, approved_by, approved_at,
	ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by`

func scanIncomeCategory(row pgx.Row) (*domain.IncomeCategory, error) {
	var c domain.IncomeCategory
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

func scanIncome(row pgx.Row) (*domain.Income, error) {
	var in domain.Income
	err := row.Scan(
		&in.IncomeID,
		&in.CategoryID,
		&in.Amount,
		&in.IncomeDate,
		&in.Description,
		&in.ReceivedInBankAccountID,
		&in.Status,
		&in.ApprovedBy,
		&in.ApprovedAt,
		&in.LedgerTransactionID,
		&in.BranchID,
		&in.CreatedAt,
		&in.CreatedBy,
		&in.LastUpdatedAt,
		&in.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// FindIncomeCategoryByID retrieves a category by its ID.
func (r *PgxIncomeRepository) FindIncomeCategoryByID(ctx context.Context, categoryID string) (*domain.IncomeCategory, error) {
	query := `SELECT ` + selectIncomeCategoryFields + ` FROM income_categories WHERE category_id = $1;`

	c, err := scanIncomeCategory(r.pool.QueryRow(ctx, query, categoryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: income category %s", apperrors.ErrNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to find income category by ID %s: %w", categoryID, err)
	}
	return c, nil
}

// ListIncomeCategories retrieves all income categories.
func (r *PgxIncomeRepository) ListIncomeCategories(ctx context.Context) ([]domain.IncomeCategory, error) {
	query := `SELECT ` + selectIncomeCategoryFields + ` FROM income_categories ORDER BY name;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query income categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.IncomeCategory{}
	for rows.Next() {
		c, err := scanIncomeCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating income category rows: %w", rows.Err())
	}
	return categories, nil
}

// SaveIncomeCategory persists a new category.
func (r *PgxIncomeRepository) SaveIncomeCategory(ctx context.Context, category domain.IncomeCategory) error {
	query := `
		INSERT INTO income_categories (category_id, name, description, ledger_account_id, created_at, created_by, last_updated_at, last_updated_by)
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
			return fmt.Errorf("%w: income category %q already exists", apperrors.ErrDuplicate, category.Name)
		}
		return fmt.Errorf("failed to save income category %s: %w", category.CategoryID, err)
	}
	return nil
}

// UpdateIncomeCategory updates an existing category.
func (r *PgxIncomeRepository) UpdateIncomeCategory(ctx context.Context, category domain.IncomeCategory) error {
	query := `
		UPDATE income_categories
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
			return fmt.Errorf("%w: income category %q already exists", apperrors.ErrDuplicate, category.Name)
		}
		return fmt.Errorf("failed to execute update income category %s: %w", category.CategoryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: income category %s", apperrors.ErrNotFound, category.CategoryID)
	}
	return nil
}

// FindIncomeByID retrieves an income by its ID.
func (r *PgxIncomeRepository) FindIncomeByID(ctx context.Context, incomeID string) (*domain.Income, error) {
	query := `SELECT ` + selectIncomeFields + ` FROM incomes WHERE income_id = $1;`

	in, err := scanIncome(r.pool.QueryRow(ctx, query, incomeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: income %s", apperrors.ErrNotFound, incomeID)
		}
		return nil, fmt.Errorf("failed to find income by ID %s: %w", incomeID, err)
	}
	return in, nil
}

// ListIncomes retrieves a paginated list of incomes, newest first.
func (r *PgxIncomeRepository) ListIncomes(ctx context.Context, filter portsrepo.IncomeListFilter, limit int, nextToken *string) ([]domain.Income, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectIncomeFields + ` FROM incomes`
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
		conditions = append(conditions, "income_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, "income_date <= $"+strconv.Itoa(len(args)))
	}
	if nextToken != nil && *nextToken != "" {
		incomeDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, incomeDate, createdAt)
		conditions = append(conditions, fmt.Sprintf("(income_date, created_at) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += " ORDER BY income_date DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query incomes: %w", err)
	}
	defer rows.Close()

	incomes := []domain.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan income row: %w", err)
		}
		incomes = append(incomes, *in)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating income rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(incomes) > limit {
		incomes = incomes[:limit]
		last := incomes[limit-1]
		token := pagination.EncodeToken(last.IncomeDate, last.CreatedAt)
		nextPageToken = &token
	}
	return incomes, nextPageToken, nil
}

// SaveIncome persists a new income in PENDING state.
func (r *PgxIncomeRepository) SaveIncome(ctx context.Context, income domain.Income) error {
	query := `
		INSERT INTO incomes (income_id, category_id, amount, income_date, description, received_in_bank_account_id, status, approved_by, approved_at, ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.pool.Exec(ctx, query,
		income.IncomeID,
		income.CategoryID,
		income.Amount,
		income.IncomeDate,
		income.Description,
		income.ReceivedInBankAccountID,
		income.Status,
		income.ApprovedBy,
		income.ApprovedAt,
		income.LedgerTransactionID,
		income.BranchID,
		income.CreatedAt,
		income.CreatedBy,
		income.LastUpdatedAt,
		income.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save income %s: %w", income.IncomeID, err)
	}
	return nil
}

// UpdateIncome updates a PENDING income's editable fields.
func (r *PgxIncomeRepository) UpdateIncome(ctx context.Context, income domain.Income) error {
	query := `
		UPDATE incomes
		SET category_id = $2, amount = $3, income_date = $4, description = $5, received_in_bank_account_id = $6, last_updated_at = $7, last_updated_by = $8
		WHERE income_id = $1 AND status = $9;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		income.IncomeID,
		income.CategoryID,
		income.Amount,
		income.IncomeDate,
		income.Description,
		income.ReceivedInBankAccountID,
		income.LastUpdatedAt,
		income.LastUpdatedBy,
		domain.ApprovalPending,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update income %s: %w", income.IncomeID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindIncomeByID(ctx, income.IncomeID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: income %s is no longer PENDING", apperrors.ErrValidation, income.IncomeID)
	}
	return nil
}

// DeleteIncome removes a PENDING income.
func (r *PgxIncomeRepository) DeleteIncome(ctx context.Context, incomeID string) error {
	query := `DELETE FROM incomes WHERE income_id = $1 AND status = $2;`

	cmdTag, err := r.pool.Exec(ctx, query, incomeID, domain.ApprovalPending)
	if err != nil {
		return fmt.Errorf("failed to delete income %s: %w", incomeID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindIncomeByID(ctx, incomeID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: income %s is no longer PENDING", apperrors.ErrValidation, incomeID)
	}
	return nil
}

// ApproveIncome moves PENDING or REJECTED to APPROVED via a conditional UPDATE.
func (r *PgxIncomeRepository) ApproveIncome(ctx context.Context, incomeID string, approverID string, now time.Time) (*domain.Income, error) {
	query := `
		UPDATE incomes
		SET status = $2, approved_by = $3, approved_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE income_id = $1 AND status = ANY($5)
		RETURNING ` + selectIncomeFields + `;`

	approvable := []string{string(domain.ApprovalPending), string(domain.ApprovalRejected)}
	in, err := scanIncome(r.pool.QueryRow(ctx, query, incomeID, domain.ApprovalApproved, approverID, now, approvable))
	if err == nil {
		return in, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to approve income %s: %w", incomeID, err)
	}

	if _, findErr := r.FindIncomeByID(ctx, incomeID); findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: income %s is already approved", apperrors.ErrAlreadyCompleted, incomeID)
}

// RejectIncome moves PENDING to REJECTED via a conditional UPDATE.
func (r *PgxIncomeRepository) RejectIncome(ctx context.Context, incomeID string, userID string, now time.Time) (*domain.Income, error) {
	query := `
		UPDATE incomes
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE income_id = $1 AND status = $5
		RETURNING ` + selectIncomeFields + `;`

	in, err := scanIncome(r.pool.QueryRow(ctx, query, incomeID, domain.ApprovalRejected, now, userID, domain.ApprovalPending))
	if err == nil {
		return in, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to reject income %s: %w", incomeID, err)
	}

	current, findErr := r.FindIncomeByID(ctx, incomeID)
	if findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: income %s is already %s", apperrors.ErrAlreadyCompleted, incomeID, strings.ToLower(string(current.Status)))
}

// SetLedgerTransactionID records the posting produced for an approved income.
func (r *PgxIncomeRepository) SetLedgerTransactionID(ctx context.Context, incomeID string, ledgerTransactionID string) error {
	query := `UPDATE incomes SET ledger_transaction_id = $2 WHERE income_id = $1;`

	cmdTag, err := r.pool.Exec(ctx, query, incomeID, ledgerTransactionID)
	if err != nil {
		return fmt.Errorf("failed to set ledger transaction for income %s: %w", incomeID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: income %s", apperrors.ErrNotFound, incomeID)
	}
	return nil
}
