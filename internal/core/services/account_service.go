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
)

// accountServiceImpl implements the AccountSvcFacade interface
type accountServiceImpl struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// ServiceOption is a functional option for configuring the account service
type ServiceOption func(*accountServiceImpl)

// NewAccountServiceImpl creates a new account service with the provided options
func NewAccountServiceImpl(repo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AccountSvcFacade {
	svc := &accountServiceImpl{
		accountRepo: repo,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountServiceImpl implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountServiceImpl)(nil)

func (s *accountServiceImpl) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	// The account type must be one of the seeded reference rows; the row also
	// carries the normal balance side used by every posting against this account.
	types, err := s.accountRepo.FindAccountTypesByCodes(ctx, []domain.AccountTypeCode{req.AccountType})
	if err != nil {
		s.LogError(ctx, err, "Failed to look up account type",
			slog.String("account_type", string(req.AccountType)))
		return nil, fmt.Errorf("failed to look up account type %s: %w", req.AccountType, err)
	}
	if _, ok := types[req.AccountType]; !ok {
		return nil, fmt.Errorf("unknown account type %s: %w", req.AccountType, apperrors.ErrValidation)
	}

	if req.OpeningBalance.Exponent() < -2 {
		return nil, fmt.Errorf("opening balance %s has more than two decimal places: %w", req.OpeningBalance, apperrors.ErrInvalidAmount)
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parentID = *req.ParentAccountID
		parentAccount, err := s.accountRepo.FindAccountByID(ctx, parentID)
		if err != nil {
			s.LogError(ctx, err, "Failed to find parent account",
				slog.String("parent_id", parentID))
			return nil, fmt.Errorf("invalid parent account: %w", err)
		}
		if parentAccount.AccountTypeCode != req.AccountType {
			return nil, fmt.Errorf("parent account %s is of type %s, not %s: %w",
				parentID, parentAccount.AccountTypeCode, req.AccountType, apperrors.ErrValidation)
		}
	}

	now := time.Now()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            req.Code,
		Name:            req.Name,
		AccountTypeCode: req.AccountType,
		ParentAccountID: parentID,
		Description:     req.Description,
		OpeningBalance:  req.OpeningBalance,
		CurrentBalance:  req.OpeningBalance,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account",
			slog.String("account_id", account.AccountID),
			slog.String("code", account.Code))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code))
	return &account, nil
}

func (s *accountServiceImpl) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID",
				slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountServiceImpl) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code",
				slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountServiceImpl) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to find accounts by IDs",
			slog.String("account_ids", fmt.Sprintf("%v", accountIDs)))
		return nil, err
	}
	return accounts, nil
}

func (s *accountServiceImpl) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	filter := portsrepo.AccountListFilter{
		ActiveOnly: params.ActiveOnly,
	}
	if params.AccountType != nil && *params.AccountType != "" {
		code := domain.AccountTypeCode(*params.AccountType)
		filter.AccountTypeCode = &code
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, filter, params.Limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.Int("limit", params.Limit),
			slog.Int("offset", params.Offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if accounts == nil {
		return []domain.Account{}, nil // Return empty slice if repo returns nil
	}
	return accounts, nil
}

func (s *accountServiceImpl) ListAccountTypes(ctx context.Context) ([]domain.AccountType, error) {
	types, err := s.accountRepo.ListAccountTypes(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list account types")
		return nil, fmt.Errorf("failed to list account types: %w", err)
	}
	return types, nil
}

func (s *accountServiceImpl) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err // GetAccountByID already logs errors
	}

	// Apply updates
	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		s.LogDebug(ctx, "No fields provided for account update",
			slog.String("account_id", accountID))
		return account, nil
	}

	account.MarkUpdated(userID, time.Now())

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account",
			slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated successfully",
		slog.String("account_id", account.AccountID))
	return account, nil
}

func (s *accountServiceImpl) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	// First verify that the account exists
	if _, err := s.GetAccountByID(ctx, accountID); err != nil {
		return err // GetAccountByID already logs errors
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account",
			slog.String("account_id", accountID))
		return err
	}

	s.LogInfo(ctx, "Account deactivated successfully",
		slog.String("account_id", accountID))
	return nil
}

// GetBalance serves the cached balance for current reads and recomputes from
// the entry log only when a historical cut-off is requested. The cache is
// maintained by the posting path, so the fast path is a single row read.
func (s *accountServiceImpl) GetBalance(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	if asOf == nil {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.LogError(ctx, err, "Failed to read cached balance",
					slog.String("account_id", accountID))
			}
			return decimal.Zero, err
		}
		return account.CurrentBalance, nil
	}

	balance, err := s.accountRepo.ComputeBalance(ctx, accountID, asOf)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to compute historical balance",
				slog.String("account_id", accountID),
				slog.Time("as_of", *asOf))
		}
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *accountServiceImpl) RecomputeBalance(ctx context.Context, accountID string, userID string) (*domain.BalanceResult, error) {
	result, err := s.accountRepo.RecomputeBalance(ctx, accountID, userID, time.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to recompute balance",
			slog.String("account_id", accountID))
		return nil, err
	}

	if result.Corrected {
		s.LogWarn(ctx, "Cached balance diverged from entry log and was corrected",
			slog.String("account_id", accountID),
			slog.String("cached_before", result.CachedBefore.String()),
			slog.String("computed", result.Computed.String()))
	} else {
		s.LogDebug(ctx, "Cached balance verified against entry log",
			slog.String("account_id", accountID))
	}
	return result, nil
}

func (s *accountServiceImpl) SetDefaultAccount(ctx context.Context, role domain.AccountRole, accountID string, userID string) error {
	switch role {
	case domain.RoleCash, domain.RoleAccountsReceivable, domain.RoleWalletLiability,
		domain.RoleSalesRevenue, domain.RoleOtherIncome, domain.RoleGeneralExpense:
	default:
		return fmt.Errorf("%w: unknown chart role %q", apperrors.ErrValidation, role)
	}

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return err // GetAccountByID already logs errors
	}
	if !account.IsActive {
		return fmt.Errorf("account %s is inactive: %w", accountID, apperrors.ErrAccountInactive)
	}

	if err := s.accountRepo.SetDefaultAccount(ctx, role, accountID); err != nil {
		s.LogError(ctx, err, "Failed to set chart default",
			slog.String("role", string(role)),
			slog.String("account_id", accountID))
		return err
	}

	s.LogInfo(ctx, "Chart default updated",
		slog.String("role", string(role)),
		slog.String("account_id", accountID),
		slog.String("updated_by", userID))
	return nil
}

func (s *accountServiceImpl) ResolveDefaultAccount(ctx context.Context, role domain.AccountRole) (*domain.Account, error) {
	accountID, err := s.accountRepo.FindDefaultAccountID(ctx, role)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve chart default",
			slog.String("role", string(role)))
		return nil, fmt.Errorf("no default account configured for role %s: %w", role, err)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Chart default points at missing account",
			slog.String("role", string(role)),
			slog.String("account_id", accountID))
		return nil, fmt.Errorf("default account %s for role %s: %w", accountID, role, err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("default account %s for role %s is inactive: %w", accountID, role, apperrors.ErrAccountInactive)
	}
	return account, nil
}
