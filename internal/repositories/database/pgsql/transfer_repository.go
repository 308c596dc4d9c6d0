package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	"github.com/shopledger/shopledger_backend/internal/utils/pagination"
)

type PgxTransferRepository struct {
	BaseRepository
}

// newPgxTransferRepository creates a new repository for money transfers.
// Every state transition is a conditional UPDATE keyed on the current status,
// so concurrent workers never double-apply a transfer.
func newPgxTransferRepository(pool *pgxpool.Pool) portsrepo.TransferRepositoryWithTx {
	return &PgxTransferRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxTransferRepository implements portsrepo.TransferRepositoryWithTx
var _ portsrepo.TransferRepositoryWithTx = (*PgxTransferRepository)(nil)

const selectTransferFields = `
	transfer_id, from_bank_account_id, to_bank_account_id, amount, reference_no,
	notes, transfer_date, status, approved_by, approved_at, failure_reason,
	ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by`

func scanTransfer(row pgx.Row) (*domain.MoneyTransfer, error) {
	var t domain.MoneyTransfer
	err := row.Scan(
		&t.TransferID,
		&t.FromBankAccountID,
		&t.ToBankAccountID,
		&t.Amount,
		&t.ReferenceNo,
		&t.Notes,
		&t.TransferDate,
		&t.Status,
		&t.ApprovedBy,
		&t.ApprovedAt,
		&t.FailureReason,
		&t.LedgerTransactionID,
		&t.BranchID,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTransferByID retrieves a transfer by its ID.
func (r *PgxTransferRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.MoneyTransfer, error) {
	query := `SELECT ` + selectTransferFields + ` FROM money_transfers WHERE transfer_id = $1;`

	t, err := scanTransfer(r.Pool.QueryRow(ctx, query, transferID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transfer %s", apperrors.ErrNotFound, transferID)
		}
		return nil, fmt.Errorf("failed to find transfer by ID %s: %w", transferID, err)
	}
	return t, nil
}

// ListTransfers retrieves a paginated list of transfers, newest first.
func (r *PgxTransferRepository) ListTransfers(ctx context.Context, filter portsrepo.TransferListFilter, limit int, nextToken *string) ([]domain.MoneyTransfer, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectTransferFields + ` FROM money_transfers`
	conditions := []string{}
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.BankAccountID != nil {
		args = append(args, *filter.BankAccountID)
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(from_bank_account_id = $"+n+" OR to_bank_account_id = $"+n+")")
	}
	if nextToken != nil && *nextToken != "" {
		transferDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, transferDate, createdAt)
		conditions = append(conditions, fmt.Sprintf("(transfer_date, created_at) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += " ORDER BY transfer_date DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []domain.MoneyTransfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transfer row: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating transfer rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(transfers) > limit {
		transfers = transfers[:limit]
		last := transfers[limit-1]
		token := pagination.EncodeToken(last.TransferDate, last.CreatedAt)
		nextPageToken = &token
	}
	return transfers, nextPageToken, nil
}

// SaveTransfer persists a new transfer in PENDING state.
func (r *PgxTransferRepository) SaveTransfer(ctx context.Context, transfer domain.MoneyTransfer) error {
	query := `
		INSERT INTO money_transfers (transfer_id, from_bank_account_id, to_bank_account_id, amount, reference_no, notes, transfer_date, status, approved_by, approved_at, failure_reason, ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.Pool.Exec(ctx, query,
		transfer.TransferID,
		transfer.FromBankAccountID,
		transfer.ToBankAccountID,
		transfer.Amount,
		transfer.ReferenceNo,
		transfer.Notes,
		transfer.TransferDate,
		transfer.Status,
		transfer.ApprovedBy,
		transfer.ApprovedAt,
		transfer.FailureReason,
		transfer.LedgerTransactionID,
		transfer.BranchID,
		transfer.CreatedAt,
		transfer.CreatedBy,
		transfer.LastUpdatedAt,
		transfer.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save transfer %s: %w", transfer.TransferID, err)
	}
	return nil
}

// TransitionTransfer moves a transfer to the target state via a single
// conditional UPDATE keyed on the allowed source states. A miss is classified
// by re-reading the row: gone means not found, already at or past a terminal
// state means ErrAlreadyCompleted, anything else is an invalid transition.
func (r *PgxTransferRepository) TransitionTransfer(ctx context.Context, transferID string, from []domain.TransferStatus, to domain.TransferStatus, failureReason string, userID string, now time.Time) (*domain.MoneyTransfer, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	query := `
		UPDATE money_transfers
		SET status = $2, failure_reason = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transfer_id = $1 AND status = ANY($6)
		RETURNING ` + selectTransferFields + `;`

	t, err := scanTransfer(r.Pool.QueryRow(ctx, query, transferID, to, failureReason, now, userID, fromStrs))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition transfer %s to %s: %w", transferID, to, err)
	}

	current, findErr := r.FindTransferByID(ctx, transferID)
	if findErr != nil {
		return nil, findErr
	}
	if current.Status == to {
		return nil, fmt.Errorf("%w: transfer %s is already %s", apperrors.ErrAlreadyCompleted, transferID, current.Status)
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: transfer %s is %s", apperrors.ErrAlreadyCompleted, transferID, current.Status)
	}
	return nil, fmt.Errorf("%w: cannot move transfer %s from %s to %s", apperrors.ErrInvalidTransition, transferID, current.Status, to)
}

// CompleteTransfer claims the transfer with a conditional status UPDATE from
// PENDING or PROCESSING and applies both bank balance movements, all in one
// database transaction. The leg rows are locked in sorted order; nil (cash)
// legs are skipped.
func (r *PgxTransferRepository) CompleteTransfer(ctx context.Context, transferID string, approverID string, now time.Time) (*domain.MoneyTransfer, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	claim := `
		UPDATE money_transfers
		SET status = $2, approved_by = $3, approved_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE transfer_id = $1 AND status = ANY($5)
		RETURNING ` + selectTransferFields + `;`

	claimable := []string{string(domain.TransferPending), string(domain.TransferProcessing)}
	t, err := scanTransfer(tx.QueryRow(ctx, claim, transferID, domain.TransferCompleted, approverID, now, claimable))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to complete transfer %s: %w", transferID, err)
		}
		var status domain.TransferStatus
		statusErr := tx.QueryRow(ctx, `SELECT status FROM money_transfers WHERE transfer_id = $1;`, transferID).Scan(&status)
		if errors.Is(statusErr, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transfer %s", apperrors.ErrNotFound, transferID)
		} else if statusErr != nil {
			return nil, fmt.Errorf("failed to check status of transfer %s: %w", transferID, statusErr)
		}
		if status == domain.TransferCompleted {
			return nil, fmt.Errorf("%w: transfer %s is already completed", apperrors.ErrAlreadyCompleted, transferID)
		}
		return nil, fmt.Errorf("%w: cannot complete transfer %s in status %s", apperrors.ErrInvalidTransition, transferID, status)
	}

	legIDs := []string{}
	if t.FromBankAccountID != nil {
		legIDs = append(legIDs, *t.FromBankAccountID)
	}
	if t.ToBankAccountID != nil {
		legIDs = append(legIDs, *t.ToBankAccountID)
	}

	if len(legIDs) > 0 {
		rows, err := tx.Query(ctx, `SELECT bank_account_id FROM bank_accounts WHERE bank_account_id = ANY($1) ORDER BY bank_account_id FOR UPDATE;`, legIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to lock bank accounts for transfer %s: %w", transferID, err)
		}
		locked := map[string]struct{}{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan locked bank account row: %w", err)
			}
			locked[id] = struct{}{}
		}
		rows.Close()
		if rows.Err() != nil {
			return nil, fmt.Errorf("error iterating locked bank account rows: %w", rows.Err())
		}
		for _, id := range legIDs {
			if _, ok := locked[id]; !ok {
				return nil, fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, id)
			}
		}

		moveQuery := `
			UPDATE bank_accounts
			SET current_balance = current_balance + $2, last_updated_at = $3, last_updated_by = $4
			WHERE bank_account_id = $1;
		`
		if t.FromBankAccountID != nil {
			if _, err := tx.Exec(ctx, moveQuery, *t.FromBankAccountID, t.Amount.Neg(), now, approverID); err != nil {
				return nil, fmt.Errorf("failed to debit bank account %s: %w", *t.FromBankAccountID, err)
			}
		}
		if t.ToBankAccountID != nil {
			if _, err := tx.Exec(ctx, moveQuery, *t.ToBankAccountID, t.Amount, now, approverID); err != nil {
				return nil, fmt.Errorf("failed to credit bank account %s: %w", *t.ToBankAccountID, err)
			}
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return t, nil
}

// SetLedgerTransactionID records the posting produced for a completed transfer.
func (r *PgxTransferRepository) SetLedgerTransactionID(ctx context.Context, transferID string, ledgerTransactionID string) error {
	query := `UPDATE money_transfers SET ledger_transaction_id = $2 WHERE transfer_id = $1;`

	cmdTag, err := r.Pool.Exec(ctx, query, transferID, ledgerTransactionID)
	if err != nil {
		return fmt.Errorf("failed to set ledger transaction for transfer %s: %w", transferID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transfer %s", apperrors.ErrNotFound, transferID)
	}
	return nil
}
