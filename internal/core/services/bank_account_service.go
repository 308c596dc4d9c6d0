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
)

// listBankAccountsCap bounds the unpaginated bank account listing; a shop
// has a handful of bank accounts, not thousands.
const listBankAccountsCap = 500

// bankAccountService manages bank accounts and their linked ledger accounts.
// Each bank account is backed by one asset account in the chart so transfer
// and approval postings always have a real account to hit.
type bankAccountService struct {
	BaseService
	bankAccountRepo portsrepo.BankAccountRepositoryFacade
	accountSvc      portssvc.AccountSvcFacade
}

// NewBankAccountService creates a new bank account service.
func NewBankAccountService(bankAccountRepo portsrepo.BankAccountRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.BankAccountSvcFacade {
	return &bankAccountService{
		bankAccountRepo: bankAccountRepo,
		accountSvc:      accountSvc,
	}
}

// Ensure bankAccountService implements the portssvc.BankAccountSvcFacade interface
var _ portssvc.BankAccountSvcFacade = (*bankAccountService)(nil)

func (s *bankAccountService) CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance must not be negative", apperrors.ErrInvalidAmount)
	}
	if req.OpeningBalance.Exponent() < -2 {
		return nil, fmt.Errorf("%w: opening balance %s has more than two decimal places", apperrors.ErrInvalidAmount, req.OpeningBalance)
	}

	bankAccountID := uuid.NewString()

	// Create the backing asset account first; the bank account row points
	// at it. The chart code is derived from the bank account ID so it can
	// never collide with operator-assigned codes.
	ledgerAccount, err := s.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Code:           fmt.Sprintf("BANK-%s", bankAccountID[:8]),
		Name:           req.Name,
		AccountType:    domain.Asset,
		Description:    fmt.Sprintf("Ledger account for bank account %q", req.Name),
		OpeningBalance: req.OpeningBalance,
	}, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to create backing ledger account for bank account",
			slog.String("bank_account_id", bankAccountID))
		return nil, fmt.Errorf("failed to create backing ledger account: %w", err)
	}

	now := time.Now()
	bankAccount := domain.BankAccount{
		BankAccountID:   bankAccountID,
		Name:            req.Name,
		BankName:        req.BankName,
		AccountNumber:   req.AccountNumber,
		LedgerAccountID: ledgerAccount.AccountID,
		CurrentBalance:  req.OpeningBalance,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.bankAccountRepo.SaveBankAccount(ctx, bankAccount); err != nil {
		s.LogError(ctx, err, "Failed to save bank account; deactivating orphaned ledger account",
			slog.String("bank_account_id", bankAccountID),
			slog.String("ledger_account_id", ledgerAccount.AccountID))
		if deactivateErr := s.accountSvc.DeactivateAccount(ctx, ledgerAccount.AccountID, userID); deactivateErr != nil {
			s.LogError(ctx, deactivateErr, "Failed to deactivate orphaned ledger account",
				slog.String("ledger_account_id", ledgerAccount.AccountID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Bank account created successfully",
		slog.String("bank_account_id", bankAccountID),
		slog.String("ledger_account_id", ledgerAccount.AccountID))
	return &bankAccount, nil
}

func (s *bankAccountService) GetBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, bankAccountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find bank account by ID",
				slog.String("bank_account_id", bankAccountID))
		}
		return nil, err
	}
	return bankAccount, nil
}

func (s *bankAccountService) ListBankAccounts(ctx context.Context, activeOnly bool) ([]domain.BankAccount, error) {
	accounts, err := s.bankAccountRepo.ListBankAccounts(ctx, listBankAccountsCap, 0)
	if err != nil {
		s.LogError(ctx, err, "Failed to list bank accounts")
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}

	if !activeOnly {
		if accounts == nil {
			return []domain.BankAccount{}, nil
		}
		return accounts, nil
	}

	active := make([]domain.BankAccount, 0, len(accounts))
	for _, acc := range accounts {
		if acc.IsActive {
			active = append(active, acc)
		}
	}
	return active, nil
}

func (s *bankAccountService) UpdateBankAccount(ctx context.Context, bankAccountID string, req dto.UpdateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	bankAccount, err := s.GetBankAccountByID(ctx, bankAccountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		bankAccount.Name = *req.Name
		updated = true
	}
	if req.BankName != nil {
		bankAccount.BankName = *req.BankName
		updated = true
	}
	if req.AccountNumber != nil {
		bankAccount.AccountNumber = *req.AccountNumber
		updated = true
	}
	if !updated {
		return bankAccount, nil
	}

	bankAccount.MarkUpdated(userID, time.Now())

	if err := s.bankAccountRepo.UpdateBankAccount(ctx, *bankAccount); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("another bank account already uses number %s: %w", bankAccount.AccountNumber, err)
		}
		s.LogError(ctx, err, "Failed to update bank account",
			slog.String("bank_account_id", bankAccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Bank account updated successfully",
		slog.String("bank_account_id", bankAccountID))
	return bankAccount, nil
}

func (s *bankAccountService) DeactivateBankAccount(ctx context.Context, bankAccountID string, userID string) error {
	bankAccount, err := s.GetBankAccountByID(ctx, bankAccountID)
	if err != nil {
		return err
	}

	if err := s.bankAccountRepo.DeactivateBankAccount(ctx, bankAccountID, userID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate bank account",
			slog.String("bank_account_id", bankAccountID))
		return err
	}

	// Close the backing ledger account to new postings as well. Reversals
	// against it remain possible.
	if err := s.accountSvc.DeactivateAccount(ctx, bankAccount.LedgerAccountID, userID); err != nil {
		s.LogError(ctx, err, "Failed to deactivate backing ledger account",
			slog.String("bank_account_id", bankAccountID),
			slog.String("ledger_account_id", bankAccount.LedgerAccountID))
	}

	s.LogInfo(ctx, "Bank account deactivated successfully",
		slog.String("bank_account_id", bankAccountID))
	return nil
}
