package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for chart-of-accounts data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const selectAccountFields = `
	account_id, code, name, account_type_code, parent_account_id, description,
	opening_balance, current_balance, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

// signedEntrySum recomputes an account balance from its entries: opening
// balance plus each entry's amount, positive when the entry side matches the
// account type's normal side. It mirrors domain.JournalEntry.SignedAmount.
const signedEntrySum = `
	a.opening_balance + COALESCE(SUM(
		CASE WHEN (e.entry_type = 'DEBIT') = (at.normal_balance = 'DEBIT') THEN e.amount ELSE -e.amount END
	), 0)`

// scanAccount scans one account row; works for both QueryRow and rows in a loop.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	var parentID sql.NullString
	err := row.Scan(
		&acc.AccountID,
		&acc.Code,
		&acc.Name,
		&acc.AccountTypeCode,
		&parentID,
		&acc.Description,
		&acc.OpeningBalance,
		&acc.CurrentBalance,
		&acc.IsActive,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		acc.ParentAccountID = parentID.String
	}
	return &acc, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, code, name, account_type_code, parent_account_id, description, opening_balance, current_balance, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	var parentID sql.NullString
	if account.ParentAccountID != "" {
		parentID = sql.NullString{String: account.ParentAccountID, Valid: true}
	}

	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.Code,
		account.Name,
		account.AccountTypeCode,
		parentID,
		account.Description,
		account.OpeningBalance,
		account.CurrentBalance,
		account.IsActive,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: account with code %s already exists", apperrors.ErrDuplicate, account.Code)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE account_id = $1;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, nil
}

// FindAccountByCode retrieves an account by its human chart code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE code = $1;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account with code %s", apperrors.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to find account by code %s: %w", code, err)
	}
	return acc, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
// IDs that do not exist are simply absent from the result map.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE account_id = ANY($1);`

	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row during batch fetch: %w", err)
		}
		accountsMap[acc.AccountID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows during batch fetch: %w", err)
	}
	return accountsMap, nil
}

// ListAccounts retrieves a paginated list of accounts matching the filter.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter portsrepo.AccountListFilter, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + selectAccountFields + ` FROM accounts`
	conditions := []string{}
	args := []any{}

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.AccountTypeCode != nil {
		args = append(args, string(*filter.AccountTypeCode))
		conditions = append(conditions, "account_type_code = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += " ORDER BY code LIMIT $" + strconv.Itoa(len(args))
	args = append(args, offset)
	query += " OFFSET $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", rows.Err())
	}
	return accounts, nil
}

// ListAccountTypes retrieves the seeded account type reference rows.
func (r *PgxAccountRepository) ListAccountTypes(ctx context.Context) ([]domain.AccountType, error) {
	query := `SELECT code, name, description, normal_balance FROM account_types ORDER BY code;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query account types: %w", err)
	}
	defer rows.Close()

	types := []domain.AccountType{}
	for rows.Next() {
		var at domain.AccountType
		if err := rows.Scan(&at.Code, &at.Name, &at.Description, &at.NormalBalance); err != nil {
			return nil, fmt.Errorf("failed to scan account type row: %w", err)
		}
		types = append(types, at)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account type rows: %w", rows.Err())
	}
	return types, nil
}

// FindAccountTypesByCodes retrieves account types keyed by code.
func (r *PgxAccountRepository) FindAccountTypesByCodes(ctx context.Context, codes []domain.AccountTypeCode) (map[domain.AccountTypeCode]domain.AccountType, error) {
	if len(codes) == 0 {
		return map[domain.AccountTypeCode]domain.AccountType{}, nil
	}

	codeStrs := make([]string, len(codes))
	for i, c := range codes {
		codeStrs[i] = string(c)
	}

	query := `SELECT code, name, description, normal_balance FROM account_types WHERE code = ANY($1);`

	rows, err := r.Pool.Query(ctx, query, codeStrs)
	if err != nil {
		return nil, fmt.Errorf("failed to query account types by codes: %w", err)
	}
	defer rows.Close()

	typesMap := make(map[domain.AccountTypeCode]domain.AccountType)
	for rows.Next() {
		var at domain.AccountType
		if err := rows.Scan(&at.Code, &at.Name, &at.Description, &at.NormalBalance); err != nil {
			return nil, fmt.Errorf("failed to scan account type row: %w", err)
		}
		typesMap[at.Code] = at
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account type rows: %w", rows.Err())
	}
	return typesMap, nil
}

// FindDefaultAccountID resolves a chart-default role to its account ID.
func (r *PgxAccountRepository) FindDefaultAccountID(ctx context.Context, role domain.AccountRole) (string, error) {
	query := `SELECT account_id FROM chart_defaults WHERE role = $1;`

	var accountID string
	err := r.Pool.QueryRow(ctx, query, string(role)).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: no default account configured for role %s", apperrors.ErrNotFound, role)
		}
		return "", fmt.Errorf("failed to resolve default account for role %s: %w", role, err)
	}
	return accountID, nil
}

// UpdateAccount updates an existing account's editable details.
// Type, code, opening balance and the cached balance are not touched here.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, description = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.Description,
		account.IsActive,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update account %s: %w", account.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, account.AccountID)
	}
	return nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Zero rows means either the account is missing or it was already
		// inactive; look it up to report the right error.
		_, findErr := r.FindAccountByID(ctx, accountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after deactivation attempt for %s: %w", accountID, findErr)
		}
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrValidation, accountID)
	}
	return nil
}

// SetDefaultAccount points a chart-default role at an account.
func (r *PgxAccountRepository) SetDefaultAccount(ctx context.Context, role domain.AccountRole, accountID string) error {
	query := `
		INSERT INTO chart_defaults (role, account_id)
		VALUES ($1, $2)
		ON CONFLICT (role) DO UPDATE SET account_id = EXCLUDED.account_id;
	`
	_, err := r.Pool.Exec(ctx, query, string(role), accountID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // FK violation
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return fmt.Errorf("failed to set default account for role %s: %w", role, err)
	}
	return nil
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the
// rows for update. ORDER BY makes concurrent postings acquire the locks in the
// same sequence, which prevents deadlocks. Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`

	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs for update: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accountsMap[acc.AccountID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}

	if len(accountsMap) != len(accountIDs) {
		missing := []string{}
		for _, id := range accountIDs {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: could not find or lock all requested accounts, missing: %v", apperrors.ErrNotFound, missing)
	}

	return accountsMap, nil
}

// UpdateAccountBalancesInTx applies signed balance deltas to multiple accounts
// within a transaction. Rows must already be locked by the caller.
func (r *PgxAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	if len(balanceChanges) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET current_balance = COALESCE(current_balance, 0) + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(balanceChanges))
	for accountID, delta := range balanceChanges {
		if !delta.IsZero() {
			batch.Queue(query, accountID, delta, now, userID)
			accountIDs = append(accountIDs, accountID)
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", accountIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountIDs[i])
			}
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}
	return batchErr
}

// ComputeBalance derives opening balance plus the signed entry sum for one
// account, optionally cut off at asOf (inclusive). The cache is not touched.
func (r *PgxAccountRepository) ComputeBalance(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	query := `
		SELECT ` + signedEntrySum + `
		FROM accounts a
		JOIN account_types at ON at.code = a.account_type_code
		LEFT JOIN journal_entries e ON e.account_id = a.account_id`
	args := []any{accountID}
	if asOf != nil {
		query += ` AND e.entry_date <= $2`
		args = append(args, *asOf)
	}
	query += `
		WHERE a.account_id = $1
		GROUP BY a.opening_balance;`

	var balance decimal.Decimal
	err := r.Pool.QueryRow(ctx, query, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return decimal.Zero, fmt.Errorf("failed to compute balance for account %s: %w", accountID, err)
	}
	return balance, nil
}

// RecomputeBalance recomputes the balance from entries under a row lock and
// overwrites the cached current_balance when it diverged.
func (r *PgxAccountRepository) RecomputeBalance(ctx context.Context, accountID string, userID string, now time.Time) (*domain.BalanceResult, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var cached decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT current_balance FROM accounts WHERE account_id = $1 FOR UPDATE;`, accountID).Scan(&cached)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to lock account %s for recompute: %w", accountID, err)
	}

	computeQuery := `
		SELECT ` + signedEntrySum + `
		FROM accounts a
		JOIN account_types at ON at.code = a.account_type_code
		LEFT JOIN journal_entries e ON e.account_id = a.account_id
		WHERE a.account_id = $1
		GROUP BY a.opening_balance;`

	var computed decimal.Decimal
	if err := tx.QueryRow(ctx, computeQuery, accountID).Scan(&computed); err != nil {
		return nil, fmt.Errorf("failed to recompute balance for account %s: %w", accountID, err)
	}

	corrected := !computed.Equal(cached)
	if corrected {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET current_balance = $2, last_updated_at = $3, last_updated_by = $4 WHERE account_id = $1;`,
			accountID, computed, now, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to overwrite cached balance for account %s: %w", accountID, err)
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &domain.BalanceResult{
		AccountID:    accountID,
		CachedBefore: cached,
		Computed:     computed,
		Corrected:    corrected,
	}, nil
}
