package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
)

// transferService drives the money transfer state machine. Bank balances are
// touched exactly once, inside the repository's atomic COMPLETED transition;
// the ledger posting that mirrors the movement runs afterwards with
// degraded-success semantics.
type transferService struct {
	BaseService
	transferRepo   portsrepo.TransferRepositoryFacade
	bankAccountSvc portssvc.BankAccountSvcFacade
	accountSvc     portssvc.AccountSvcFacade
	poster         portssvc.LedgerPoster
	branchID       string
}

// NewTransferService creates a new transfer service.
func NewTransferService(transferRepo portsrepo.TransferRepositoryFacade, bankAccountSvc portssvc.BankAccountSvcFacade, accountSvc portssvc.AccountSvcFacade, poster portssvc.LedgerPoster, branchID string) portssvc.TransferSvcFacade {
	return &transferService{
		transferRepo:   transferRepo,
		bankAccountSvc: bankAccountSvc,
		accountSvc:     accountSvc,
		poster:         poster,
		branchID:       branchID,
	}
}

// Ensure transferService implements the portssvc.TransferSvcFacade interface
var _ portssvc.TransferSvcFacade = (*transferService)(nil)

func (s *transferService) CreateTransfer(ctx context.Context, req dto.CreateTransferRequest, userID string) (*domain.MoneyTransfer, error) {
	if req.FromBankAccountID == nil && req.ToBankAccountID == nil {
		return nil, fmt.Errorf("%w: at least one leg of a transfer must be a bank account", apperrors.ErrValidation)
	}
	if req.FromBankAccountID != nil && req.ToBankAccountID != nil && *req.FromBankAccountID == *req.ToBankAccountID {
		return nil, fmt.Errorf("%w: transfer legs must differ", apperrors.ErrValidation)
	}
	if err := accounting.ValidateAmountPrecision(req.Amount); err != nil {
		return nil, err
	}

	for _, leg := range []*string{req.FromBankAccountID, req.ToBankAccountID} {
		if leg == nil {
			continue
		}
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *leg)
		if err != nil {
			return nil, fmt.Errorf("invalid bank account %s: %w", *leg, err)
		}
		if !bankAccount.IsActive {
			return nil, fmt.Errorf("%w: bank account %s is inactive", apperrors.ErrValidation, *leg)
		}
	}

	now := time.Now()
	transfer := domain.MoneyTransfer{
		TransferID:        uuid.NewString(),
		FromBankAccountID: req.FromBankAccountID,
		ToBankAccountID:   req.ToBankAccountID,
		Amount:            req.Amount,
		ReferenceNo:       req.ReferenceNo,
		Notes:             req.Notes,
		TransferDate:      req.TransferDate,
		Status:            domain.TransferPending,
		BranchID:          s.branchID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.transferRepo.SaveTransfer(ctx, transfer); err != nil {
		s.LogError(ctx, err, "Failed to save transfer",
			slog.String("transfer_id", transfer.TransferID))
		return nil, err
	}

	s.LogInfo(ctx, "Transfer created",
		slog.String("transfer_id", transfer.TransferID),
		slog.String("amount", transfer.Amount.String()))
	return &transfer, nil
}

func (s *transferService) GetTransferByID(ctx context.Context, transferID string) (*domain.MoneyTransfer, error) {
	transfer, err := s.transferRepo.FindTransferByID(ctx, transferID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transfer by ID",
				slog.String("transfer_id", transferID))
		}
		return nil, err
	}
	return transfer, nil
}

func (s *transferService) ListTransfers(ctx context.Context, params dto.ListTransfersParams) (*dto.ListTransfersResponse, error) {
	filter := portsrepo.TransferListFilter{
		BankAccountID: params.BankAccountID,
	}
	if params.Status != nil && *params.Status != "" {
		status := domain.TransferStatus(*params.Status)
		filter.Status = &status
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	transfers, nextToken, err := s.transferRepo.ListTransfers(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transfers")
		return nil, fmt.Errorf("failed to retrieve transfers: %w", err)
	}

	responses := make([]dto.TransferResponse, len(transfers))
	for i, t := range transfers {
		responses[i] = dto.ToTransferResponse(&t)
	}

	return &dto.ListTransfersResponse{
		Transfers: responses,
		NextToken: nextToken,
	}, nil
}

func (s *transferService) MarkProcessing(ctx context.Context, transferID string, userID string) (*domain.MoneyTransfer, error) {
	transfer, err := s.transferRepo.TransitionTransfer(ctx, transferID,
		[]domain.TransferStatus{domain.TransferPending}, domain.TransferProcessing, "", userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAlreadyCompleted) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			s.LogError(ctx, err, "Failed to mark transfer processing",
				slog.String("transfer_id", transferID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Transfer marked processing",
		slog.String("transfer_id", transferID))
	return transfer, nil
}

// ApproveTransfer settles a transfer. The repository performs the
// conditional COMPLETED transition and both bank balance movements in one
// database transaction, so approval can never double-apply; the mirroring
// ledger posting then runs with its failure degraded into the result.
func (s *transferService) ApproveTransfer(ctx context.Context, transferID string, userID string) (*domain.MoneyTransfer, domain.PostingResult, error) {
	transfer, err := s.transferRepo.CompleteTransfer(ctx, transferID, userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAlreadyCompleted) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			s.LogError(ctx, err, "Failed to complete transfer",
				slog.String("transfer_id", transferID))
		}
		return nil, domain.PostingResult{}, err
	}

	result := s.postCompletion(ctx, transfer, userID)
	if result.Posted {
		if err := s.transferRepo.SetLedgerTransactionID(ctx, transferID, result.TransactionID); err != nil {
			// The posting exists; only the back-link is missing. Leave it
			// to reconciliation rather than failing the approval.
			s.LogError(ctx, err, "Failed to link ledger transaction to transfer",
				slog.String("transfer_id", transferID),
				slog.String("transaction_id", result.TransactionID))
		} else {
			transfer.LedgerTransactionID = &result.TransactionID
		}
	}

	s.LogInfo(ctx, "Transfer approved",
		slog.String("transfer_id", transferID),
		slog.Bool("posted", result.Posted))
	return transfer, result, nil
}

// postCompletion builds and posts the double entry mirroring a completed
// transfer: debit the destination asset account, credit the source. A nil
// leg resolves to the configured cash default.
func (s *transferService) postCompletion(ctx context.Context, transfer *domain.MoneyTransfer, userID string) domain.PostingResult {
	fromAccountID, err := s.resolveLegAccount(ctx, transfer.FromBankAccountID)
	if err != nil {
		s.LogWarn(ctx, "Transfer completed but source leg account could not be resolved",
			slog.String("transfer_id", transfer.TransferID),
			slog.String("error", err.Error()))
		return domain.PostingResult{Posted: false, FailureReason: err.Error()}
	}
	toAccountID, err := s.resolveLegAccount(ctx, transfer.ToBankAccountID)
	if err != nil {
		s.LogWarn(ctx, "Transfer completed but destination leg account could not be resolved",
			slog.String("transfer_id", transfer.TransferID),
			slog.String("error", err.Error()))
		return domain.PostingResult{Posted: false, FailureReason: err.Error()}
	}

	ref := domain.Reference{Kind: domain.RefTransfer, ID: transfer.TransferID}
	description := fmt.Sprintf("Money transfer %s", transfer.TransferID)
	if transfer.ReferenceNo != "" {
		description = fmt.Sprintf("Money transfer %s", transfer.ReferenceNo)
	}

	entries := []domain.EntryInput{
		{AccountID: toAccountID, EntryType: domain.Debit, Amount: transfer.Amount},
		{AccountID: fromAccountID, EntryType: domain.Credit, Amount: transfer.Amount},
	}

	return s.poster.PostForReference(ctx, ref, transfer.TransferDate, description, entries, transfer.BranchID, userID)
}

// resolveLegAccount maps a transfer leg to its ledger account: the bank
// account's backing asset account, or the cash chart default for a nil leg.
func (s *transferService) resolveLegAccount(ctx context.Context, bankAccountID *string) (string, error) {
	if bankAccountID == nil {
		cash, err := s.accountSvc.ResolveDefaultAccount(ctx, domain.RoleCash)
		if err != nil {
			return "", err
		}
		return cash.AccountID, nil
	}

	bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *bankAccountID)
	if err != nil {
		return "", fmt.Errorf("bank account %s: %w", *bankAccountID, err)
	}
	return bankAccount.LedgerAccountID, nil
}

func (s *transferService) CancelTransfer(ctx context.Context, transferID string, userID string) (*domain.MoneyTransfer, error) {
	transfer, err := s.transferRepo.TransitionTransfer(ctx, transferID,
		[]domain.TransferStatus{domain.TransferPending, domain.TransferProcessing}, domain.TransferCancelled, "", userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAlreadyCompleted) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			s.LogError(ctx, err, "Failed to cancel transfer",
				slog.String("transfer_id", transferID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Transfer cancelled",
		slog.String("transfer_id", transferID))
	return transfer, nil
}

func (s *transferService) FailTransfer(ctx context.Context, transferID string, reason string, userID string) (*domain.MoneyTransfer, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: a failure reason is required", apperrors.ErrValidation)
	}

	transfer, err := s.transferRepo.TransitionTransfer(ctx, transferID,
		[]domain.TransferStatus{domain.TransferPending, domain.TransferProcessing}, domain.TransferFailed, reason, userID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAlreadyCompleted) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			s.LogError(ctx, err, "Failed to mark transfer failed",
				slog.String("transfer_id", transferID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Transfer marked failed",
		slog.String("transfer_id", transferID),
		slog.String("reason", reason))
	return transfer, nil
}
