package pgsql

import (
	"context"
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
	"github.com/shopledger/shopledger_backend/internal/utils/pagination"
)

type PgxSaleRepository struct {
	BaseRepository
}

// newPgxSaleRepository creates a new PostgreSQL sale repository.
func newPgxSaleRepository(pool *pgxpool.Pool) portsrepo.SaleRepositoryWithTx {
	return &PgxSaleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxSaleRepository implements portsrepo.SaleRepositoryWithTx
var _ portsrepo.SaleRepositoryWithTx = (*PgxSaleRepository)(nil)

const selectSaleFields = `
	sale_id, invoice_no, customer_id, sale_date, subtotal, discount, total,
	paid_amount, payment_status, notes, ledger_transaction_id, branch_id,
	created_at, created_by, last_updated_at, last_updated_by`

const selectSaleItemFields = `
	sale_item_id, sale_id, product_id, quantity, unit_price, line_total`

const selectSalePaymentFields = `
	payment_id, sale_id, method, amount, bank_account_id, created_at, created_by`

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var s domain.Sale
	err := row.Scan(
		&s.SaleID,
		&s.InvoiceNo,
		&s.CustomerID,
		&s.SaleDate,
		&s.Subtotal,
		&s.Discount,
		&s.Total,
		&s.PaidAmount,
		&s.PaymentStatus,
		&s.Notes,
		&s.LedgerTransactionID,
		&s.BranchID,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSaleItem(row pgx.Row) (*domain.SaleItem, error) {
	var it domain.SaleItem
	err := row.Scan(
		&it.SaleItemID,
		&it.SaleID,
		&it.ProductID,
		&it.Quantity,
		&it.UnitPrice,
		&it.LineTotal,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func scanSalePayment(row pgx.Row) (*domain.SalePayment, error) {
	var p domain.SalePayment
	err := row.Scan(
		&p.PaymentID,
		&p.SaleID,
		&p.Method,
		&p.Amount,
		&p.BankAccountID,
		&p.CreatedAt,
		&p.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindSaleByID retrieves a sale together with its items and payments.
func (r *PgxSaleRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, []domain.SaleItem, []domain.SalePayment, error) {
	saleQuery := `SELECT ` + selectSaleFields + ` FROM sales WHERE sale_id = $1;`

	sale, err := scanSale(r.Pool.QueryRow(ctx, saleQuery, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, fmt.Errorf("%w: sale %s", apperrors.ErrNotFound, saleID)
		}
		return nil, nil, nil, fmt.Errorf("failed to find sale by ID %s: %w", saleID, err)
	}

	itemQuery := `SELECT ` + selectSaleItemFields + ` FROM sale_items WHERE sale_id = $1 ORDER BY sale_item_id;`

	itemRows, err := r.Pool.Query(ctx, itemQuery, saleID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query items for sale %s: %w", saleID, err)
	}
	defer itemRows.Close()

	items := []domain.SaleItem{}
	for itemRows.Next() {
		it, err := scanSaleItem(itemRows)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan sale item row: %w", err)
		}
		items = append(items, *it)
	}
	if itemRows.Err() != nil {
		return nil, nil, nil, fmt.Errorf("error iterating sale item rows: %w", itemRows.Err())
	}

	paymentQuery := `SELECT ` + selectSalePaymentFields + ` FROM sale_payments WHERE sale_id = $1 ORDER BY created_at;`

	paymentRows, err := r.Pool.Query(ctx, paymentQuery, saleID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query payments for sale %s: %w", saleID, err)
	}
	defer paymentRows.Close()

	payments := []domain.SalePayment{}
	for paymentRows.Next() {
		p, err := scanSalePayment(paymentRows)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan sale payment row: %w", err)
		}
		payments = append(payments, *p)
	}
	if paymentRows.Err() != nil {
		return nil, nil, nil, fmt.Errorf("error iterating sale payment rows: %w", paymentRows.Err())
	}

	return sale, items, payments, nil
}

// ListSales retrieves a paginated list of sales, newest first.
func (r *PgxSaleRepository) ListSales(ctx context.Context, filter portsrepo.SaleListFilter, limit int, nextToken *string) ([]domain.Sale, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + selectSaleFields + ` FROM sales`
	conditions := []string{}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, "customer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.PaymentStatus != nil {
		args = append(args, string(*filter.PaymentStatus))
		conditions = append(conditions, "payment_status = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, "sale_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, "sale_date <= $"+strconv.Itoa(len(args)))
	}
	if nextToken != nil && *nextToken != "" {
		saleDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)
		}
		args = append(args, saleDate, createdAt)
		conditions = append(conditions, fmt.Sprintf("(sale_date, created_at) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += " ORDER BY sale_date DESC, created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		sales = append(sales, *s)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating sale rows: %w", rows.Err())
	}

	var nextPageToken *string
	if len(sales) > limit {
		sales = sales[:limit]
		last := sales[limit-1]
		token := pagination.EncodeToken(last.SaleDate, last.CreatedAt)
		nextPageToken = &token
	}
	return sales, nextPageToken, nil
}

// SaveSale persists a sale with its items and payments, decrements product
// stock and applies wallet movements, all in one database transaction.
func (r *PgxSaleRepository) SaveSale(ctx context.Context, sale domain.Sale, items []domain.SaleItem, payments []domain.SalePayment, walletTxns []domain.CustomerWalletTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	insertSale := `
		INSERT INTO sales (sale_id, invoice_no, customer_id, sale_date, subtotal, discount, total, paid_amount, payment_status, notes, ledger_transaction_id, branch_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err = tx.Exec(ctx, insertSale,
		sale.SaleID,
		sale.InvoiceNo,
		sale.CustomerID,
		sale.SaleDate,
		sale.Subtotal,
		sale.Discount,
		sale.Total,
		sale.PaidAmount,
		sale.PaymentStatus,
		sale.Notes,
		sale.LedgerTransactionID,
		sale.BranchID,
		sale.CreatedAt,
		sale.CreatedBy,
		sale.LastUpdatedAt,
		sale.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: sale with invoice %s already exists", apperrors.ErrDuplicate, sale.InvoiceNo)
		}
		return fmt.Errorf("failed to save sale %s: %w", sale.SaleID, err)
	}

	if err := r.decrementStockTx(ctx, tx, sale, items); err != nil {
		return err
	}

	itemBatch := &pgx.Batch{}
	insertItem := `
		INSERT INTO sale_items (sale_item_id, sale_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, it := range items {
		itemBatch.Queue(insertItem, it.SaleItemID, it.SaleID, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal)
	}
	br := tx.SendBatch(ctx, itemBatch)
	var batchErr error
	for range items {
		if _, execErr := br.Exec(); execErr != nil && batchErr == nil {
			batchErr = execErr
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = closeErr
	}
	if batchErr != nil {
		return fmt.Errorf("failed to save items for sale %s: %w", sale.SaleID, batchErr)
	}

	for _, p := range payments {
		if err := insertSalePaymentTx(ctx, tx, p); err != nil {
			return err
		}
	}

	for _, w := range walletTxns {
		if _, err := applyWalletTransactionTx(ctx, tx, w); err != nil {
			return err
		}
	}

	return r.Commit(ctx, tx)
}

// decrementStockTx locks the sold products in sorted order and takes the sold
// quantities off their stock, aggregating lines that repeat a product.
func (r *PgxSaleRepository) decrementStockTx(ctx context.Context, tx pgx.Tx, sale domain.Sale, items []domain.SaleItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: sale %s has no items", apperrors.ErrValidation, sale.SaleID)
	}

	soldQty := make(map[string]decimal.Decimal)
	for _, it := range items {
		soldQty[it.ProductID] = soldQty[it.ProductID].Add(it.Quantity)
	}
	productIDs := make([]string, 0, len(soldQty))
	for id := range soldQty {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	lockQuery := `SELECT product_id, stock_quantity FROM products WHERE product_id = ANY($1) ORDER BY product_id FOR UPDATE;`

	rows, err := tx.Query(ctx, lockQuery, productIDs)
	if err != nil {
		return fmt.Errorf("failed to lock products for sale %s: %w", sale.SaleID, err)
	}
	defer rows.Close()

	stock := make(map[string]decimal.Decimal, len(productIDs))
	for rows.Next() {
		var id string
		var qty decimal.Decimal
		if err := rows.Scan(&id, &qty); err != nil {
			return fmt.Errorf("failed to scan locked product row: %w", err)
		}
		stock[id] = qty
	}
	if rows.Err() != nil {
		return fmt.Errorf("error iterating locked product rows: %w", rows.Err())
	}
	rows.Close()

	for _, id := range productIDs {
		current, ok := stock[id]
		if !ok {
			return fmt.Errorf("%w: product %s", apperrors.ErrNotFound, id)
		}
		if current.LessThan(soldQty[id]) {
			return fmt.Errorf("%w: product %s has %s in stock, sale needs %s",
				apperrors.ErrInsufficientStock, id, current.String(), soldQty[id].String())
		}
	}

	updateQuery := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, last_updated_at = $3, last_updated_by = $4
		WHERE product_id = $1;
	`
	batch := &pgx.Batch{}
	for _, id := range productIDs {
		batch.Queue(updateQuery, id, soldQty[id], sale.CreatedAt, sale.CreatedBy)
	}
	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for range productIDs {
		if _, execErr := br.Exec(); execErr != nil && batchErr == nil {
			batchErr = execErr
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = closeErr
	}
	if batchErr != nil {
		return fmt.Errorf("failed to decrement stock for sale %s: %w", sale.SaleID, batchErr)
	}
	return nil
}

func insertSalePaymentTx(ctx context.Context, tx pgx.Tx, payment domain.SalePayment) error {
	query := `
		INSERT INTO sale_payments (payment_id, sale_id, method, amount, bank_account_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := tx.Exec(ctx, query,
		payment.PaymentID,
		payment.SaleID,
		payment.Method,
		payment.Amount,
		payment.BankAccountID,
		payment.CreatedAt,
		payment.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment %s for sale %s: %w", payment.PaymentID, payment.SaleID, err)
	}
	return nil
}

// AddSalePayment appends a payment to a sale under its row lock, applies an
// optional wallet debit, and recomputes the paid amount and payment status.
func (r *PgxSaleRepository) AddSalePayment(ctx context.Context, saleID string, payment domain.SalePayment, walletTxn *domain.CustomerWalletTransaction) (*domain.Sale, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	lockQuery := `SELECT ` + selectSaleFields + ` FROM sales WHERE sale_id = $1 FOR UPDATE;`

	sale, err := scanSale(tx.QueryRow(ctx, lockQuery, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: sale %s", apperrors.ErrNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to lock sale %s: %w", saleID, err)
	}

	if sale.PaymentStatus == domain.PaymentPaid {
		return nil, fmt.Errorf("%w: sale %s is already fully paid", apperrors.ErrAlreadyCompleted, saleID)
	}
	outstanding := sale.Total.Sub(sale.PaidAmount)
	if payment.Amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("%w: payment %s exceeds outstanding amount %s",
			apperrors.ErrInvalidAmount, payment.Amount.String(), outstanding.String())
	}

	if err := insertSalePaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}
	if walletTxn != nil {
		if _, err := applyWalletTransactionTx(ctx, tx, *walletTxn); err != nil {
			return nil, err
		}
	}

	newPaid := sale.PaidAmount.Add(payment.Amount)
	newStatus := domain.DerivePaymentStatus(newPaid, sale.Total)

	updateQuery := `
		UPDATE sales
		SET paid_amount = $2, payment_status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE sale_id = $1;
	`
	_, err = tx.Exec(ctx, updateQuery, saleID, newPaid, newStatus, payment.CreatedAt, payment.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to update paid amount for sale %s: %w", saleID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	sale.PaidAmount = newPaid
	sale.PaymentStatus = newStatus
	sale.LastUpdatedAt = payment.CreatedAt
	sale.LastUpdatedBy = payment.CreatedBy
	return sale, nil
}

// SetLedgerTransactionID records the posting produced for a sale.
func (r *PgxSaleRepository) SetLedgerTransactionID(ctx context.Context, saleID string, ledgerTransactionID string) error {
	query := `UPDATE sales SET ledger_transaction_id = $2 WHERE sale_id = $1;`

	cmdTag, err := r.Pool.Exec(ctx, query, saleID, ledgerTransactionID)
	if err != nil {
		return fmt.Errorf("failed to set ledger transaction for sale %s: %w", saleID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %s", apperrors.ErrNotFound, saleID)
	}
	return nil
}
