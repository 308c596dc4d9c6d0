package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
)

var (
	ErrDescriptionMissing = fmt.Errorf("%w: transaction description is required", apperrors.ErrValidation)
	ErrReversalOfReversal = fmt.Errorf("%w: cannot reverse a reversing transaction", apperrors.ErrValidation)
)

// ledgerService is the posting engine. Every balanced transaction in the
// system flows through postEntries, whether it originates from the manual
// posting endpoint, an approval recipe or a reversal.
type ledgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
	branchID   string
}

// NewLedgerService creates the ledger service. branchID is stamped on
// transactions posted through the manual endpoint.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade, branchID string) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		accountSvc: accountSvc,
		branchID:   branchID,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// normalBalances loads the seeded account type rows and indexes the normal
// side by type code.
func (s *ledgerService) normalBalances(ctx context.Context) (map[domain.AccountTypeCode]domain.NormalBalance, error) {
	types, err := s.accountSvc.ListAccountTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account types: %w", err)
	}
	normals := make(map[domain.AccountTypeCode]domain.NormalBalance, len(types))
	for _, t := range types {
		normals[t.Code] = t.NormalBalance
	}
	return normals, nil
}

// balanceChangesFor sums each entry's signed contribution per account, using
// the normal balance side of the account's type.
func (s *ledgerService) balanceChangesFor(entries []domain.JournalEntry, accounts map[string]domain.Account, normals map[domain.AccountTypeCode]domain.NormalBalance) (map[string]decimal.Decimal, error) {
	changes := make(map[string]decimal.Decimal, len(accounts))
	for _, e := range entries {
		acc, ok := accounts[e.AccountID]
		if !ok {
			return nil, fmt.Errorf("internal error: account %s missing from lookup", e.AccountID)
		}
		signed, err := accounting.CalculateSignedAmount(e.EntryType, e.Amount, normals[acc.AccountTypeCode])
		if err != nil {
			return nil, fmt.Errorf("failed to calculate signed amount for entry %s: %w", e.EntryID, err)
		}
		changes[e.AccountID] = changes[e.AccountID].Add(signed)
	}
	return changes, nil
}

// postEntries validates and persists one balanced transaction. It is the
// single write path into the ledger. A nil ref stamps the entries with a
// MANUAL reference pointing at the new transaction itself.
func (s *ledgerService) postEntries(ctx context.Context, date time.Time, description string, inputs []domain.EntryInput, ref *domain.Reference, branchID string, userID string) (*domain.Transaction, error) {
	if description == "" {
		return nil, ErrDescriptionMissing
	}
	if err := accounting.ValidateEntriesBalance(inputs); err != nil {
		return nil, err
	}

	accountIDs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		accountIDs = append(accountIDs, in.AccountID)
	}
	accountIDs = uniqueStrings(accountIDs)

	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch accounts for posting")
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	normals, err := s.normalBalances(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range accountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, id)
		}
		if _, ok := normals[acc.AccountTypeCode]; !ok {
			return nil, fmt.Errorf("account %s has unknown account type %s", id, acc.AccountTypeCode)
		}
	}

	now := time.Now().UTC()
	txnID := uuid.NewString()
	if ref == nil {
		manual, refErr := domain.NewReference(domain.RefManual, txnID)
		if refErr != nil {
			return nil, refErr
		}
		ref = manual
	}

	entries := make([]domain.JournalEntry, len(inputs))
	for i, in := range inputs {
		entries[i] = domain.JournalEntry{
			EntryID:       uuid.NewString(),
			TransactionID: txnID,
			AccountID:     in.AccountID,
			EntryType:     in.EntryType,
			Amount:        in.Amount,
			EntryDate:     date,
			Description:   in.Description,
			Reference:     ref,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
			// RunningBalance is computed by the repository under row locks
		}
	}

	balanceChanges, err := s.balanceChangesFor(entries, accountsMap, normals)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute balance changes",
			slog.String("transaction_id", txnID))
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID:   txnID,
		TransactionDate: date,
		Description:     description,
		Status:          domain.Posted,
		BranchID:        branchID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.ledgerRepo.SaveTransaction(ctx, txn, entries, balanceChanges); err != nil {
		s.LogError(ctx, err, "Failed to save transaction",
			slog.String("transaction_id", txnID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.LogInfo(ctx, "Transaction posted",
		slog.String("transaction_id", txnID),
		slog.String("reference", ref.String()),
		slog.Int("entry_count", len(entries)))
	return &txn, nil
}

// PostTransaction posts a manual transaction from the direct ledger endpoint.
// Unlike approval-driven postings, failures here are hard errors.
func (s *ledgerService) PostTransaction(ctx context.Context, req dto.PostTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	inputs := make([]domain.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		inputs[i] = domain.EntryInput{
			AccountID:   e.AccountID,
			EntryType:   e.EntryType,
			Amount:      e.Amount,
			Description: e.Description,
		}
	}
	return s.postEntries(ctx, req.TransactionDate, req.Description, inputs, nil, s.branchID, creatorUserID)
}

// ReverseTransaction corrects a posted transaction by posting its mirror
// image and marking the original REVERSED. Posted rows are never mutated or
// deleted; the correction is itself an ordinary balanced transaction.
func (s *ledgerService) ReverseTransaction(ctx context.Context, transactionID string, userID string) (*domain.Transaction, error) {
	original, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to fetch transaction for reversal",
				slog.String("transaction_id", transactionID))
		}
		return nil, err
	}

	if original.IsReversal() {
		return nil, ErrReversalOfReversal
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: transaction %s is %s", apperrors.ErrAlreadyCompleted, transactionID, original.Status)
	}

	originalEntries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch entries for reversal",
			slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to retrieve entries for transaction %s: %w", transactionID, err)
	}

	accountIDs := make([]string, 0, len(originalEntries))
	for _, e := range originalEntries {
		accountIDs = append(accountIDs, e.AccountID)
	}
	accountIDs = uniqueStrings(accountIDs)

	// Corrections stay possible even when an account has since been
	// deactivated, so the active check from postEntries is deliberately
	// not applied here.
	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch accounts for reversal",
			slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to fetch accounts for reversal: %w", err)
	}

	normals, err := s.normalBalances(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reversingID := uuid.NewString()

	reversingEntries := make([]domain.JournalEntry, len(originalEntries))
	for i, orig := range originalEntries {
		flipped := domain.Credit
		if orig.EntryType == domain.Credit {
			flipped = domain.Debit
		}
		reversingEntries[i] = domain.JournalEntry{
			EntryID:       uuid.NewString(),
			TransactionID: reversingID,
			AccountID:     orig.AccountID,
			EntryType:     flipped,
			Amount:        orig.Amount,
			EntryDate:     original.TransactionDate,
			Description:   orig.Description,
			Reference:     orig.Reference, // Keep the origin trail intact across the correction
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	balanceChanges, err := s.balanceChangesFor(reversingEntries, accountsMap, normals)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute balance changes for reversal",
			slog.String("transaction_id", transactionID))
		return nil, err
	}

	reversing := domain.Transaction{
		TransactionID:         reversingID,
		TransactionDate:       original.TransactionDate,
		Description:           fmt.Sprintf("Reversal of: %s", original.Description),
		Status:                domain.Posted,
		OriginalTransactionID: original.TransactionID,
		BranchID:              original.BranchID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.ledgerRepo.SaveReversal(ctx, reversing, reversingEntries, balanceChanges, original.TransactionID); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyCompleted) {
			// Lost the race against a concurrent reversal; nothing was written.
			return nil, err
		}
		s.LogError(ctx, err, "Failed to save reversing transaction",
			slog.String("original_transaction_id", transactionID),
			slog.String("reversing_transaction_id", reversingID))
		return nil, fmt.Errorf("failed to save reversing transaction: %w", err)
	}

	s.LogInfo(ctx, "Transaction reversed",
		slog.String("original_transaction_id", transactionID),
		slog.String("reversing_transaction_id", reversingID))
	return &reversing, nil
}

// GetTransactionByID retrieves a transaction together with its entry lines.
func (s *ledgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, []domain.JournalEntry, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction by ID",
				slog.String("transaction_id", transactionID))
		}
		return nil, nil, err
	}

	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch entries for transaction",
			slog.String("transaction_id", transactionID))
		return nil, nil, fmt.Errorf("failed to retrieve entries for transaction %s: %w", transactionID, err)
	}

	return txn, entries, nil
}

// ListTransactions retrieves a page of transactions, newest first.
func (s *ledgerService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	txns, nextToken, err := s.ledgerRepo.ListTransactions(ctx, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions")
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	responses := make([]dto.TransactionResponse, len(txns))
	for i, txn := range txns {
		responses[i] = dto.ToTransactionResponse(&txn)
	}

	return &dto.ListTransactionsResponse{
		Transactions: responses,
		NextToken:    nextToken,
	}, nil
}

// ListEntriesByAccount retrieves the statement of one account, newest first.
// Entries of reversed transactions are included so the statement reconciles
// exactly with the cached balance.
func (s *ledgerService) ListEntriesByAccount(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	// Resolve the account first so a bad ID surfaces as NotFound rather
	// than an empty page.
	if _, err := s.accountSvc.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByAccountID(ctx, accountID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list entries for account",
			slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToJournalEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
