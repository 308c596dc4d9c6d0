package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
	"github.com/shopledger/shopledger_backend/internal/utils/pagination"
)

type PgxLedgerRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountBalanceSupport
}

// newPgxLedgerRepository creates a new repository for posted transactions and
// their journal entries. It leans on the account repository for row locking
// and cached balance updates inside its transactions.
func newPgxLedgerRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountBalanceSupport) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

const selectTransactionFields = `
	transaction_id, transaction_date, description, status,
	original_transaction_id, reversing_transaction_id, branch_id,
	created_at, created_by, last_updated_at, last_updated_by`

const selectEntryFields = `
	entry_id, transaction_id, account_id, entry_type, amount, entry_date,
	description, reference_kind, reference_id, running_balance,
	created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	var originalID, reversingID sql.NullString
	err := row.Scan(
		&txn.TransactionID,
		&txn.TransactionDate,
		&txn.Description,
		&txn.Status,
		&originalID,
		&reversingID,
		&txn.BranchID,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if originalID.Valid {
		txn.OriginalTransactionID = originalID.String
	}
	if reversingID.Valid {
		txn.ReversingTransactionID = reversingID.String
	}
	return &txn, nil
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	var refKind, refID sql.NullString
	err := row.Scan(
		&entry.EntryID,
		&entry.TransactionID,
		&entry.AccountID,
		&entry.EntryType,
		&entry.Amount,
		&entry.EntryDate,
		&entry.Description,
		&refKind,
		&refID,
		&entry.RunningBalance,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.LastUpdatedAt,
		&entry.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if refKind.Valid && refID.Valid {
		entry.Reference = &domain.Reference{Kind: domain.ReferenceKind(refKind.String), ID: refID.String}
	}
	return &entry, nil
}

// SaveTransaction persists a transaction and its entries, updating cached
// account balances, all within one database transaction.
func (r *PgxLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.insertTransactionTx(ctx, tx, txn); err != nil {
		return err
	}
	if err := r.postEntriesTx(ctx, tx, txn, entries, balanceChanges); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveReversal persists the reversing transaction and flips the original from
// POSTED to REVERSED in the same database transaction. The conditional flip is
// the only guard against double reversal; losing that race rolls the whole
// write back with ErrAlreadyCompleted.
func (r *PgxLedgerRepository) SaveReversal(ctx context.Context, reversing domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal, originalTransactionID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	flip := `
		UPDATE transactions
		SET status = $2, reversing_transaction_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = $6;
	`
	cmdTag, err := tx.Exec(ctx, flip,
		originalTransactionID,
		domain.Reversed,
		reversing.TransactionID,
		reversing.CreatedAt,
		reversing.CreatedBy,
		domain.Posted,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s reversed: %w", originalTransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var status domain.TransactionStatus
		err := tx.QueryRow(ctx, `SELECT status FROM transactions WHERE transaction_id = $1;`, originalTransactionID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, originalTransactionID)
		} else if err != nil {
			return fmt.Errorf("failed to check status of transaction %s: %w", originalTransactionID, err)
		}
		return fmt.Errorf("%w: transaction %s is already %s", apperrors.ErrAlreadyCompleted, originalTransactionID, status)
	}

	if err := r.insertTransactionTx(ctx, tx, reversing); err != nil {
		return err
	}
	if err := r.postEntriesTx(ctx, tx, reversing, entries, balanceChanges); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxLedgerRepository) insertTransactionTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, transaction_date, description, status, original_transaction_id, reversing_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	var originalID, reversingID sql.NullString
	if txn.OriginalTransactionID != "" {
		originalID = sql.NullString{String: txn.OriginalTransactionID, Valid: true}
	}
	if txn.ReversingTransactionID != "" {
		reversingID = sql.NullString{String: txn.ReversingTransactionID, Valid: true}
	}

	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		txn.TransactionDate,
		txn.Description,
		txn.Status,
		originalID,
		reversingID,
		txn.BranchID,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, txn.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// postEntriesTx locks the touched accounts, applies the balance deltas and
// inserts the entry rows with their running balances. Running balances are
// seeded from the locked pre-posting balances, so entry order within the
// transaction is made deterministic by sorting on entry ID.
func (r *PgxLedgerRepository) postEntriesTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal) error {
	accountIDs := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; !ok {
			seen[e.AccountID] = struct{}{}
			accountIDs = append(accountIDs, e.AccountID)
		}
	}

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return err
	}
	normals, err := r.loadNormalBalances(ctx, tx, lockedAccounts)
	if err != nil {
		return err
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return fmt.Errorf("failed to update account balances for transaction %s: %w", txn.TransactionID, err)
	}

	ordered := make([]domain.JournalEntry, len(entries))
	copy(ordered, entries)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].EntryID < ordered[j].EntryID })

	running := make(map[string]decimal.Decimal, len(lockedAccounts))
	for id, acc := range lockedAccounts {
		running[id] = acc.CurrentBalance
	}

	insertQuery := `
		INSERT INTO journal_entries (entry_id, transaction_id, account_id, entry_type, amount, entry_date, description, reference_kind, reference_id, running_balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	batch := &pgx.Batch{}
	for i := range ordered {
		e := &ordered[i]
		normal, ok := normals[e.AccountID]
		if !ok {
			return fmt.Errorf("no account type found for account %s", e.AccountID)
		}
		signed, err := accounting.CalculateSignedAmount(e.EntryType, e.Amount, normal)
		if err != nil {
			return fmt.Errorf("failed to compute signed amount for entry %s: %w", e.EntryID, err)
		}
		running[e.AccountID] = running[e.AccountID].Add(signed)
		e.RunningBalance = running[e.AccountID]

		var refKind, refID sql.NullString
		if e.Reference != nil {
			refKind = sql.NullString{String: string(e.Reference.Kind), Valid: true}
			refID = sql.NullString{String: e.Reference.ID, Valid: true}
		}
		batch.Queue(insertQuery,
			e.EntryID,
			e.TransactionID,
			e.AccountID,
			e.EntryType,
			e.Amount,
			e.EntryDate,
			e.Description,
			refKind,
			refID,
			e.RunningBalance,
			e.CreatedAt,
			e.CreatedBy,
			e.LastUpdatedAt,
			e.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to insert journal entry %s: %w", ordered[i].EntryID, err)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close journal entry batch: %w", err)
	}
	return batchErr
}

// loadNormalBalances resolves each locked account to its type's normal side.
func (r *PgxLedgerRepository) loadNormalBalances(ctx context.Context, tx pgx.Tx, accounts map[string]domain.Account) (map[string]domain.NormalBalance, error) {
	codes := []string{}
	seen := make(map[domain.AccountTypeCode]struct{})
	for _, acc := range accounts {
		if _, ok := seen[acc.AccountTypeCode]; !ok {
			seen[acc.AccountTypeCode] = struct{}{}
			codes = append(codes, string(acc.AccountTypeCode))
		}
	}

	rows, err := tx.Query(ctx, `SELECT code, normal_balance FROM account_types WHERE code = ANY($1);`, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query normal balances: %w", err)
	}
	defer rows.Close()

	byType := make(map[domain.AccountTypeCode]domain.NormalBalance)
	for rows.Next() {
		var code domain.AccountTypeCode
		var normal domain.NormalBalance
		if err := rows.Scan(&code, &normal); err != nil {
			return nil, fmt.Errorf("failed to scan normal balance row: %w", err)
		}
		byType[code] = normal
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating normal balance rows: %w", rows.Err())
	}

	normals := make(map[string]domain.NormalBalance, len(accounts))
	for id, acc := range accounts {
		normal, ok := byType[acc.AccountTypeCode]
		if !ok {
			return nil, fmt.Errorf("account %s has unknown account type %s", id, acc.AccountTypeCode)
		}
		normals[id] = normal
	}
	return normals, nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + selectTransactionFields + ` FROM transactions WHERE transaction_id = $1;`

	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactions retrieves a paginated list of transactions, newest first.
// With includeReversals false, reversed originals and the reversing
// transactions themselves are filtered out.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectTransactionFields + ` FROM transactions`
	conditions := []string{}
	args := []any{}

	if !includeReversals {
		conditions = append(conditions, "status = 'POSTED' AND original_transaction_id IS NULL")
	}
	if nextToken != nil && *nextToken != "" {
		rowDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, rowDate, createdAt)
		conditions = append(conditions, fmt.Sprintf("(transaction_date, created_at) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += " ORDER BY transaction_date DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.CreatedAt)
		nextPageToken = &token
	}
	return txns, nextPageToken, nil
}

// FindEntriesByTransactionID retrieves all entries for a single transaction.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.JournalEntry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM journal_entries WHERE transaction_id = $1 ORDER BY entry_id;`

	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", rows.Err())
	}
	return entries, nil
}

// FindEntriesByTransactionIDs retrieves entries for multiple transactions,
// grouped by transaction ID. Every requested ID gets a key, empty when the
// transaction has no entries.
func (r *PgxLedgerRepository) FindEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.JournalEntry, error) {
	grouped := make(map[string][]domain.JournalEntry, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return grouped, nil
	}
	for _, id := range transactionIDs {
		grouped[id] = []domain.JournalEntry{}
	}

	query := `SELECT ` + selectEntryFields + ` FROM journal_entries WHERE transaction_id = ANY($1) ORDER BY transaction_id, entry_id;`

	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by transaction IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row during batch fetch: %w", err)
		}
		grouped[entry.TransactionID] = append(grouped[entry.TransactionID], *entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating entry rows during batch fetch: %w", rows.Err())
	}
	return grouped, nil
}

// ListEntriesByAccountID retrieves a paginated account statement, newest first.
func (r *PgxLedgerRepository) ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectEntryFields + ` FROM journal_entries WHERE account_id = $1`
	args := []any{accountID}

	if nextToken != nil && *nextToken != "" {
		entryDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, entryDate, createdAt)
		query += fmt.Sprintf(" AND (entry_date, created_at) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, fetchLimit)
	query += " ORDER BY entry_date DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries for account %s: %w", accountID, err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating entry rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextPageToken = &token
	}
	return entries, nextPageToken, nil
}

// FindUnbalancedTransactions reports transactions whose debit and credit
// totals differ. With the posting engine enforcing balance this should always
// come back empty; rows here mean corruption worth investigating.
func (r *PgxLedgerRepository) FindUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error) {
	query := `
		SELECT transaction_id,
			COALESCE(SUM(CASE WHEN entry_type = 'DEBIT' THEN amount ELSE 0 END), 0) AS debit_total,
			COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE 0 END), 0) AS credit_total
		FROM journal_entries
		GROUP BY transaction_id
		HAVING SUM(CASE WHEN entry_type = 'DEBIT' THEN amount ELSE -amount END) <> 0
		ORDER BY transaction_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unbalanced transactions: %w", err)
	}
	defer rows.Close()

	imbalances := []domain.TransactionImbalance{}
	for rows.Next() {
		var im domain.TransactionImbalance
		if err := rows.Scan(&im.TransactionID, &im.DebitTotal, &im.CreditTotal); err != nil {
			return nil, fmt.Errorf("failed to scan imbalance row: %w", err)
		}
		im.Difference = im.DebitTotal.Sub(im.CreditTotal)
		imbalances = append(imbalances, im)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating imbalance rows: %w", rows.Err())
	}
	return imbalances, nil
}

// SumEntryTotals returns the system-wide debit and credit totals.
func (r *PgxLedgerRepository) SumEntryTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN entry_type = 'DEBIT' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE 0 END), 0)
		FROM journal_entries;
	`
	var debits, credits decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query).Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum entry totals: %w", err)
	}
	return debits, credits, nil
}

// ComputeAccountBalanceAudits recomputes every account's balance from its
// entries next to the cached value, one row per account.
func (r *PgxLedgerRepository) ComputeAccountBalanceAudits(ctx context.Context) ([]domain.AccountBalanceAudit, error) {
	query := `
		SELECT a.account_id, a.code, a.name, a.account_type_code, at.normal_balance, a.current_balance,
			` + signedEntrySum + ` AS computed
		FROM accounts a
		JOIN account_types at ON at.code = a.account_type_code
		LEFT JOIN journal_entries e ON e.account_id = a.account_id
		GROUP BY a.account_id, a.code, a.name, a.account_type_code, at.normal_balance, a.current_balance, a.opening_balance
		ORDER BY a.code;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query account balance audits: %w", err)
	}
	defer rows.Close()

	audits := []domain.AccountBalanceAudit{}
	for rows.Next() {
		var a domain.AccountBalanceAudit
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.AccountTypeCode, &a.NormalBalance, &a.Cached, &a.Computed); err != nil {
			return nil, fmt.Errorf("failed to scan balance audit row: %w", err)
		}
		audits = append(audits, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating balance audit rows: %w", rows.Err())
	}
	return audits, nil
}
