package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
)

type PgxBankAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxBankAccountRepository creates a new repository for bank account data.
// Balance movements happen in the transfer repository under row locks; this
// repository only manages the records themselves.
func newPgxBankAccountRepository(pool *pgxpool.Pool) portsrepo.BankAccountRepositoryFacade {
	return &PgxBankAccountRepository{pool: pool}
}

// Ensure PgxBankAccountRepository implements portsrepo.BankAccountRepositoryFacade
var _ portsrepo.BankAccountRepositoryFacade = (*PgxBankAccountRepository)(nil)

const selectBankAccountFields = `
	bank_account_id, name, bank_name, account_number, ledger_account_id,
	current_balance, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanBankAccount(row pgx.Row) (*domain.BankAccount, error) {
	var ba domain.BankAccount
	err := row.Scan(
		&ba.BankAccountID,
		&ba.Name,
		&ba.BankName,
		&ba.AccountNumber,
		&ba.LedgerAccountID,
		&ba.CurrentBalance,
		&ba.IsActive,
		&ba.CreatedAt,
		&ba.CreatedBy,
		&ba.LastUpdatedAt,
		&ba.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &ba, nil
}

// FindBankAccountByID retrieves a bank account by its ID.
func (r *PgxBankAccountRepository) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	query := `SELECT ` + selectBankAccountFields + ` FROM bank_accounts WHERE bank_account_id = $1;`

	ba, err := scanBankAccount(r.pool.QueryRow(ctx, query, bankAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, bankAccountID)
		}
		return nil, fmt.Errorf("failed to find bank account by ID %s: %w", bankAccountID, err)
	}
	return ba, nil
}

// FindBankAccountsByIDs retrieves multiple bank accounts by their IDs.
func (r *PgxBankAccountRepository) FindBankAccountsByIDs(ctx context.Context, bankAccountIDs []string) (map[string]domain.BankAccount, error) {
	if len(bankAccountIDs) == 0 {
		return map[string]domain.BankAccount{}, nil
	}

	query := `SELECT ` + selectBankAccountFields + ` FROM bank_accounts WHERE bank_account_id = ANY($1);`

	rows, err := r.pool.Query(ctx, query, bankAccountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts by IDs: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.BankAccount)
	for rows.Next() {
		ba, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account row during batch fetch: %w", err)
		}
		accountsMap[ba.BankAccountID] = *ba
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating bank account rows during batch fetch: %w", rows.Err())
	}
	return accountsMap, nil
}

// ListBankAccounts retrieves a paginated list of bank accounts.
func (r *PgxBankAccountRepository) ListBankAccounts(ctx context.Context, limit int, offset int) ([]domain.BankAccount, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + selectBankAccountFields + ` FROM bank_accounts ORDER BY name LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.BankAccount{}
	for rows.Next() {
		ba, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account row: %w", err)
		}
		accounts = append(accounts, *ba)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating bank account rows: %w", rows.Err())
	}
	return accounts, nil
}

// SaveBankAccount persists a new bank account.
func (r *PgxBankAccountRepository) SaveBankAccount(ctx context.Context, bankAccount domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (bank_account_id, name, bank_name, account_number, ledger_account_id, current_balance, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.pool.Exec(ctx, query,
		bankAccount.BankAccountID,
		bankAccount.Name,
		bankAccount.BankName,
		bankAccount.AccountNumber,
		bankAccount.LedgerAccountID,
		bankAccount.CurrentBalance,
		bankAccount.IsActive,
		bankAccount.CreatedAt,
		bankAccount.CreatedBy,
		bankAccount.LastUpdatedAt,
		bankAccount.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: bank account with number %s already exists", apperrors.ErrDuplicate, bankAccount.AccountNumber)
		}
		return fmt.Errorf("failed to save bank account %s: %w", bankAccount.BankAccountID, err)
	}
	return nil
}

// UpdateBankAccount updates an existing bank account's details. The balance is
// only ever moved by completed transfers.
func (r *PgxBankAccountRepository) UpdateBankAccount(ctx context.Context, bankAccount domain.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET name = $2, bank_name = $3, account_number = $4, is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE bank_account_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		bankAccount.BankAccountID,
		bankAccount.Name,
		bankAccount.BankName,
		bankAccount.AccountNumber,
		bankAccount.IsActive,
		bankAccount.LastUpdatedAt,
		bankAccount.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: bank account with number %s already exists", apperrors.ErrDuplicate, bankAccount.AccountNumber)
		}
		return fmt.Errorf("failed to execute update bank account %s: %w", bankAccount.BankAccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, bankAccount.BankAccountID)
	}
	return nil
}

// DeactivateBankAccount marks a bank account as inactive.
func (r *PgxBankAccountRepository) DeactivateBankAccount(ctx context.Context, bankAccountID string, userID string, now time.Time) error {
	query := `
		UPDATE bank_accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE bank_account_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.pool.Exec(ctx, query, bankAccountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate bank account %s: %w", bankAccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		_, findErr := r.FindBankAccountByID(ctx, bankAccountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, bankAccountID)
		} else if findErr != nil {
			return fmt.Errorf("failed to check bank account status after deactivation attempt for %s: %w", bankAccountID, findErr)
		}
		return fmt.Errorf("%w: bank account %s is already inactive", apperrors.ErrValidation, bankAccountID)
	}
	return nil
}
