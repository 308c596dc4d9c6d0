package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	"github.com/shopledger/shopledger_backend/internal/utils/pagination"
)

type PgxCustomerRepository struct {
	BaseRepository
}

// newPgxCustomerRepository creates a new repository for customers and their
// wallet transaction log.
func newPgxCustomerRepository(pool *pgxpool.Pool) portsrepo.CustomerRepositoryWithTx {
	return &PgxCustomerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxCustomerRepository implements portsrepo.CustomerRepositoryWithTx
var _ portsrepo.CustomerRepositoryWithTx = (*PgxCustomerRepository)(nil)

const selectCustomerFields = `
	customer_id, name, phone, email, address, wallet_balance, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

const selectWalletTxnFields = `
	wallet_txn_id, customer_id, transaction_type, amount, balance_after,
	reason, reference_kind, reference_id, created_at, created_by`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.CustomerID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.WalletBalance,
		&c.IsActive,
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

func scanWalletTxn(row pgx.Row) (*domain.CustomerWalletTransaction, error) {
	var txn domain.CustomerWalletTransaction
	var refKind, refID sql.NullString
	err := row.Scan(
		&txn.WalletTxnID,
		&txn.CustomerID,
		&txn.TransactionType,
		&txn.Amount,
		&txn.BalanceAfter,
		&txn.Reason,
		&refKind,
		&refID,
		&txn.CreatedAt,
		&txn.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	if refKind.Valid && refID.Valid {
		txn.Reference = &domain.Reference{Kind: domain.ReferenceKind(refKind.String), ID: refID.String}
	}
	return &txn, nil
}

// applyWalletTransactionTx is the single write path into a customer's wallet:
// lock the customer row, verify funds for debits, append the log row with its
// balance_after snapshot and update the cached balance. Shared with the sale
// repository so checkout wallet movements follow the same rules.
func applyWalletTransactionTx(ctx context.Context, tx pgx.Tx, txn domain.CustomerWalletTransaction) (*domain.CustomerWalletTransaction, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT wallet_balance FROM customers WHERE customer_id = $1 FOR UPDATE;`, txn.CustomerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, txn.CustomerID)
		}
		return nil, fmt.Errorf("failed to lock customer %s wallet: %w", txn.CustomerID, err)
	}

	var newBalance decimal.Decimal
	switch txn.TransactionType {
	case domain.WalletCredit:
		newBalance = balance.Add(txn.Amount)
	case domain.WalletDebit:
		if balance.LessThan(txn.Amount) {
			return nil, fmt.Errorf("%w: wallet balance %s cannot cover debit of %s", apperrors.ErrInsufficientFunds, balance, txn.Amount)
		}
		newBalance = balance.Sub(txn.Amount)
	default:
		return nil, fmt.Errorf("%w: unknown wallet transaction type %q", apperrors.ErrValidation, txn.TransactionType)
	}
	txn.BalanceAfter = newBalance

	var refKind, refID sql.NullString
	if txn.Reference != nil {
		refKind = sql.NullString{String: string(txn.Reference.Kind), Valid: true}
		refID = sql.NullString{String: txn.Reference.ID, Valid: true}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO customer_wallet_transactions (wallet_txn_id, customer_id, transaction_type, amount, balance_after, reason, reference_kind, reference_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		txn.WalletTxnID,
		txn.CustomerID,
		txn.TransactionType,
		txn.Amount,
		txn.BalanceAfter,
		txn.Reason,
		refKind,
		refID,
		txn.CreatedAt,
		txn.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert wallet transaction %s: %w", txn.WalletTxnID, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE customers SET wallet_balance = $2, last_updated_at = $3, last_updated_by = $4 WHERE customer_id = $1;`,
		txn.CustomerID, newBalance, txn.CreatedAt, txn.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet balance for customer %s: %w", txn.CustomerID, err)
	}
	return &txn, nil
}

// FindCustomerByID retrieves a customer by their ID.
func (r *PgxCustomerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	query := `SELECT ` + selectCustomerFields + ` FROM customers WHERE customer_id = $1;`

	c, err := scanCustomer(r.Pool.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to find customer by ID %s: %w", customerID, err)
	}
	return c, nil
}

// FindCustomerByPhone retrieves a customer by their unique phone number.
func (r *PgxCustomerRepository) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	query := `SELECT ` + selectCustomerFields + ` FROM customers WHERE phone = $1;`

	c, err := scanCustomer(r.Pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer with phone %s", apperrors.ErrNotFound, phone)
		}
		return nil, fmt.Errorf("failed to find customer by phone %s: %w", phone, err)
	}
	return c, nil
}

// ListCustomers retrieves a paginated list of customers.
func (r *PgxCustomerRepository) ListCustomers(ctx context.Context, limit int, offset int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + selectCustomerFields + ` FROM customers ORDER BY name LIMIT $1 OFFSET $2;`

	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, *c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", rows.Err())
	}
	return customers, nil
}

// SaveCustomer persists a new customer.
func (r *PgxCustomerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	query := `
		INSERT INTO customers (customer_id, name, phone, email, address, wallet_balance, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		customer.CustomerID,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.Address,
		customer.WalletBalance,
		customer.IsActive,
		customer.CreatedAt,
		customer.CreatedBy,
		customer.LastUpdatedAt,
		customer.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: customer with phone %s already exists", apperrors.ErrDuplicate, customer.Phone)
		}
		return fmt.Errorf("failed to save customer %s: %w", customer.CustomerID, err)
	}
	return nil
}

// UpdateCustomer updates an existing customer's details. The wallet balance is
// only ever touched through ApplyWalletTransaction.
func (r *PgxCustomerRepository) UpdateCustomer(ctx context.Context, customer domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, address = $5, is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE customer_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		customer.CustomerID,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.Address,
		customer.IsActive,
		customer.LastUpdatedAt,
		customer.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: customer with phone %s already exists", apperrors.ErrDuplicate, customer.Phone)
		}
		return fmt.Errorf("failed to execute update customer %s: %w", customer.CustomerID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customer.CustomerID)
	}
	return nil
}

// DeactivateCustomer marks a customer as inactive.
func (r *PgxCustomerRepository) DeactivateCustomer(ctx context.Context, customerID string, userID string, now time.Time) error {
	query := `
		UPDATE customers
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE customer_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, customerID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate customer %s: %w", customerID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		_, findErr := r.FindCustomerByID(ctx, customerID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customerID)
		} else if findErr != nil {
			return fmt.Errorf("failed to check customer status after deactivation attempt for %s: %w", customerID, findErr)
		}
		return fmt.Errorf("%w: customer %s is already inactive", apperrors.ErrValidation, customerID)
	}
	return nil
}

// ApplyWalletTransaction applies one wallet movement in its own database
// transaction and returns the persisted row including BalanceAfter.
func (r *PgxCustomerRepository) ApplyWalletTransaction(ctx context.Context, txn domain.CustomerWalletTransaction) (*domain.CustomerWalletTransaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	applied, err := applyWalletTransactionTx(ctx, tx, txn)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return applied, nil
}

// ListWalletTransactions retrieves a customer's wallet statement, newest first.
func (r *PgxCustomerRepository) ListWalletTransactions(ctx context.Context, customerID string, limit int, nextToken *string) ([]domain.CustomerWalletTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectWalletTxnFields + ` FROM customer_wallet_transactions WHERE customer_id = $1`
	args := []any{customerID}

	if nextToken != nil && *nextToken != "" {
		createdAt, err := pagination.DecodeDateBasedToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, createdAt)
		query += " AND created_at < $" + strconv.Itoa(len(args))
	}
	args = append(args, fetchLimit)
	query += " ORDER BY created_at DESC, wallet_txn_id DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query wallet transactions for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	txns := []domain.CustomerWalletTransaction{}
	for rows.Next() {
		txn, err := scanWalletTxn(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan wallet transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating wallet transaction rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(txns) > limit {
		txns = txns[:limit]
		token := pagination.EncodeDateBasedToken(txns[limit-1].CreatedAt)
		nextPageToken = &token
	}
	return txns, nextPageToken, nil
}

// AuditWalletBalances compares every customer's cached wallet balance against
// the transaction log and reports only the rows that disagree.
func (r *PgxCustomerRepository) AuditWalletBalances(ctx context.Context) ([]domain.WalletMismatch, error) {
	query := `
		SELECT c.customer_id, c.name, c.wallet_balance,
			COALESCE(SUM(CASE WHEN w.transaction_type = 'CREDIT' THEN w.amount ELSE -w.amount END), 0) AS computed,
			COALESCE((
				SELECT w2.balance_after
				FROM customer_wallet_transactions w2
				WHERE w2.customer_id = c.customer_id
				ORDER BY w2.created_at DESC, w2.wallet_txn_id DESC
				LIMIT 1
			), 0) AS last_balance_after
		FROM customers c
		LEFT JOIN customer_wallet_transactions w ON w.customer_id = c.customer_id
		GROUP BY c.customer_id, c.name, c.wallet_balance
		HAVING c.wallet_balance <> COALESCE(SUM(CASE WHEN w.transaction_type = 'CREDIT' THEN w.amount ELSE -w.amount END), 0)
		ORDER BY c.customer_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet balance audit: %w", err)
	}
	defer rows.Close()

	mismatches := []domain.WalletMismatch{}
	for rows.Next() {
		var m domain.WalletMismatch
		if err := rows.Scan(&m.CustomerID, &m.Name, &m.Cached, &m.Computed, &m.LastBalanceAfter); err != nil {
			return nil, fmt.Errorf("failed to scan wallet mismatch row: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating wallet mismatch rows: %w", rows.Err())
	}
	return mismatches, nil
}
