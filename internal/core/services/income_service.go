package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
)

// incomeService implements the IncomeSvcFacade interface.
type incomeService struct {
	BaseService
	incomeRepo     portsrepo.IncomeRepositoryFacade
	bankAccountSvc portssvc.BankAccountSvcFacade
	accountSvc     portssvc.AccountSvcFacade
	poster         portssvc.LedgerPoster
	branchID       string
}

// NewIncomeService creates a new income service instance.
func NewIncomeService(
	incomeRepo portsrepo.IncomeRepositoryFacade,
	bankAccountSvc portssvc.BankAccountSvcFacade,
	accountSvc portssvc.AccountSvcFacade,
	poster portssvc.LedgerPoster,
	branchID string,
) portssvc.IncomeSvcFacade {
	return &incomeService{
		incomeRepo:     incomeRepo,
		bankAccountSvc: bankAccountSvc,
		accountSvc:     accountSvc,
		poster:         poster,
		branchID:       branchID,
	}
}

var _ portssvc.IncomeSvcFacade = (*incomeService)(nil)

// CreateIncomeCategory persists a new category after checking that any
// mapped ledger account is an active REVENUE account.
func (s *incomeService) CreateIncomeCategory(ctx context.Context, req dto.CreateCategoryRequest, userID string) (*domain.IncomeCategory, error) {
	if req.LedgerAccountID != nil {
		if err := validateCategoryAccount(ctx, s.accountSvc, *req.LedgerAccountID, domain.Revenue); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	category := domain.IncomeCategory{
		CategoryID:      uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		LedgerAccountID: req.LedgerAccountID,
	}
	category.Touch(userID, now)

	if err := s.incomeRepo.SaveIncomeCategory(ctx, category); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: income category %q already exists", apperrors.ErrDuplicate, req.Name)
		}
		s.LogError(ctx, err, "Failed to save income category")
		return nil, fmt.Errorf("failed to save income category: %w", err)
	}

	s.LogInfo(ctx, "Income category created", "category_id", category.CategoryID, "name", category.Name)
	return &category, nil
}

// UpdateIncomeCategory updates an existing category.
func (s *incomeService) UpdateIncomeCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, userID string) (*domain.IncomeCategory, error) {
	category, err := s.incomeRepo.FindIncomeCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find income category %s: %w", categoryID, err)
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.LedgerAccountID != nil {
		if err := validateCategoryAccount(ctx, s.accountSvc, *req.LedgerAccountID, domain.Revenue); err != nil {
			return nil, err
		}
		category.LedgerAccountID = req.LedgerAccountID
	}
	category.MarkUpdated(userID, time.Now().UTC())

	if err := s.incomeRepo.UpdateIncomeCategory(ctx, *category); err != nil {
		s.LogError(ctx, err, "Failed to update income category", "category_id", categoryID)
		return nil, fmt.Errorf("failed to update income category: %w", err)
	}
	return category, nil
}

// ListIncomeCategories retrieves all income categories.
func (s *incomeService) ListIncomeCategories(ctx context.Context) ([]domain.IncomeCategory, error) {
	categories, err := s.incomeRepo.ListIncomeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list income categories: %w", err)
	}
	return categories, nil
}

// GetIncomeByID retrieves a specific income by its unique identifier.
func (s *incomeService) GetIncomeByID(ctx context.Context, incomeID string) (*domain.Income, error) {
	income, err := s.incomeRepo.FindIncomeByID(ctx, incomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find income %s: %w", incomeID, err)
	}
	return income, nil
}

// ListIncomes retrieves a paginated list of incomes.
func (s *incomeService) ListIncomes(ctx context.Context, params dto.ListIncomesParams) (*dto.ListIncomesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := portsrepo.IncomeListFilter{
		CategoryID: params.CategoryID,
		From:       params.From,
		To:         params.To,
	}
	if params.Status != nil {
		status := domain.ApprovalStatus(*params.Status)
		filter.Status = &status
	}

	incomes, nextToken, err := s.incomeRepo.ListIncomes(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list incomes")
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}

	items := make([]dto.IncomeResponse, 0, len(incomes))
	for i := range incomes {
		items = append(items, dto.ToIncomeResponse(&incomes[i]))
	}
	return &dto.ListIncomesResponse{Incomes: items, NextToken: nextToken}, nil
}

// CreateIncome records a new income in PENDING state. Nothing posts yet.
func (s *incomeService) CreateIncome(ctx context.Context, req dto.CreateIncomeRequest, userID string) (*domain.Income, error) {
	if _, err := s.incomeRepo.FindIncomeCategoryByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("income category %s: %w", req.CategoryID, err)
	}
	if err := accounting.ValidateAmountPrecision(req.Amount); err != nil {
		return nil, err
	}
	if req.ReceivedInBankAccountID != nil {
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *req.ReceivedInBankAccountID)
		if err != nil {
			return nil, fmt.Errorf("bank account %s: %w", *req.ReceivedInBankAccountID, err)
		}
		if !bankAccount.IsActive {
			return nil, fmt.Errorf("%w: bank account %s is inactive", apperrors.ErrValidation, bankAccount.BankAccountID)
		}
	}

	now := time.Now().UTC()
	income := domain.Income{
		IncomeID:                uuid.NewString(),
		CategoryID:              req.CategoryID,
		Amount:                  req.Amount,
		IncomeDate:              req.IncomeDate,
		Description:             req.Description,
		ReceivedInBankAccountID: req.ReceivedInBankAccountID,
		Status:                  domain.ApprovalPending,
		BranchID:                s.branchID,
	}
	income.Touch(userID, now)

	if err := s.incomeRepo.SaveIncome(ctx, income); err != nil {
		s.LogError(ctx, err, "Failed to save income")
		return nil, fmt.Errorf("failed to save income: %w", err)
	}

	s.LogInfo(ctx, "Income recorded", "income_id", income.IncomeID, "amount", income.Amount.String())
	return &income, nil
}

// UpdateIncome updates a PENDING income.
func (s *incomeService) UpdateIncome(ctx context.Context, incomeID string, req dto.UpdateIncomeRequest, userID string) (*domain.Income, error) {
	income, err := s.incomeRepo.FindIncomeByID(ctx, incomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find income %s: %w", incomeID, err)
	}
	if income.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("%w: income %s is %s, only PENDING incomes can be updated", apperrors.ErrValidation, incomeID, income.Status)
	}

	if req.CategoryID != nil {
		if _, err := s.incomeRepo.FindIncomeCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("income category %s: %w", *req.CategoryID, err)
		}
		income.CategoryID = *req.CategoryID
	}
	if req.Amount != nil {
		if err := accounting.ValidateAmountPrecision(*req.Amount); err != nil {
			return nil, err
		}
		income.Amount = *req.Amount
	}
	if req.IncomeDate != nil {
		income.IncomeDate = *req.IncomeDate
	}
	if req.Description != nil {
		income.Description = *req.Description
	}
	if req.ReceivedInBankAccountID != nil {
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *req.ReceivedInBankAccountID)
		if err != nil {
			return nil, fmt.Errorf("bank account %s: %w", *req.ReceivedInBankAccountID, err)
		}
		if !bankAccount.IsActive {
			return nil, fmt.Errorf("%w: bank account %s is inactive", apperrors.ErrValidation, bankAccount.BankAccountID)
		}
		income.ReceivedInBankAccountID = req.ReceivedInBankAccountID
	}
	income.MarkUpdated(userID, time.Now().UTC())

	if err := s.incomeRepo.UpdateIncome(ctx, *income); err != nil {
		s.LogError(ctx, err, "Failed to update income", "income_id", incomeID)
		return nil, fmt.Errorf("failed to update income: %w", err)
	}
	return income, nil
}

// DeleteIncome removes a PENDING income.
func (s *incomeService) DeleteIncome(ctx context.Context, incomeID string, userID string) error {
	income, err := s.incomeRepo.FindIncomeByID(ctx, incomeID)
	if err != nil {
		return fmt.Errorf("failed to find income %s: %w", incomeID, err)
	}
	if income.Status != domain.ApprovalPending {
		return fmt.Errorf("%w: income %s is %s, only PENDING incomes can be deleted", apperrors.ErrValidation, incomeID, income.Status)
	}

	if err := s.incomeRepo.DeleteIncome(ctx, incomeID); err != nil {
		s.LogError(ctx, err, "Failed to delete income", "income_id", incomeID)
		return fmt.Errorf("failed to delete income: %w", err)
	}

	s.LogInfo(ctx, "Income deleted", "income_id", incomeID, "deleted_by", userID)
	return nil
}

// ApproveIncome flips the status first and posts second, same contract as
// expense approval: at most one posting per income, failures reported in
// the result.
func (s *incomeService) ApproveIncome(ctx context.Context, incomeID string, userID string) (*domain.Income, domain.PostingResult, error) {
	now := time.Now().UTC()

	income, err := s.incomeRepo.ApproveIncome(ctx, incomeID, userID, now)
	if err != nil {
		return nil, domain.PostingResult{}, fmt.Errorf("failed to approve income %s: %w", incomeID, err)
	}

	result := s.postApprovedIncome(ctx, income, userID)
	if result.Posted {
		if err := s.incomeRepo.SetLedgerTransactionID(ctx, incomeID, result.TransactionID); err != nil {
			// The posting exists; only the back-link is missing. Leave it
			// to reconciliation rather than failing the approval.
			s.LogError(ctx, err, "Failed to link ledger transaction to income",
				"income_id", incomeID, "transaction_id", result.TransactionID)
		}
		income.LedgerTransactionID = &result.TransactionID
	} else {
		s.LogWarn(ctx, "Income approved without ledger posting",
			"income_id", incomeID, "reason", result.FailureReason)
	}

	return income, result, nil
}

// RejectIncome transitions PENDING to REJECTED.
func (s *incomeService) RejectIncome(ctx context.Context, incomeID string, userID string) (*domain.Income, error) {
	income, err := s.incomeRepo.RejectIncome(ctx, incomeID, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to reject income %s: %w", incomeID, err)
	}

	s.LogInfo(ctx, "Income rejected", "income_id", incomeID, "rejected_by", userID)
	return income, nil
}

// postApprovedIncome builds and submits the double entry for an approved
// income: debit the money destination, credit the category's revenue account.
func (s *incomeService) postApprovedIncome(ctx context.Context, income *domain.Income, userID string) domain.PostingResult {
	category, err := s.incomeRepo.FindIncomeCategoryByID(ctx, income.CategoryID)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve category %s: %v", income.CategoryID, err)}
	}

	creditAccountID := ""
	if category.LedgerAccountID != nil {
		creditAccountID = *category.LedgerAccountID
	} else {
		account, err := s.accountSvc.ResolveDefaultAccount(ctx, domain.RoleOtherIncome)
		if err != nil {
			return domain.PostingResult{FailureReason: fmt.Sprintf("resolve income account: %v", err)}
		}
		creditAccountID = account.AccountID
	}

	debitAccountID, err := s.resolveMoneyAccount(ctx, income.ReceivedInBankAccountID)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve receiving account: %v", err)}
	}

	description := income.Description
	if description == "" {
		description = category.Name
	}

	ref := domain.Reference{Kind: domain.RefIncome, ID: income.IncomeID}
	entries := []domain.EntryInput{
		{AccountID: debitAccountID, EntryType: domain.Debit, Amount: income.Amount},
		{AccountID: creditAccountID, EntryType: domain.Credit, Amount: income.Amount},
	}
	return s.poster.PostForReference(ctx, ref, income.IncomeDate, fmt.Sprintf("Income: %s", description), entries, income.BranchID, userID)
}

// resolveMoneyAccount maps an optional bank account to its ledger account,
// defaulting to the cash account when none is given.
func (s *incomeService) resolveMoneyAccount(ctx context.Context, bankAccountID *string) (string, error) {
	if bankAccountID == nil {
		account, err := s.accountSvc.ResolveDefaultAccount(ctx, domain.RoleCash)
		if err != nil {
			return "", err
		}
		return account.AccountID, nil
	}
	bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *bankAccountID)
	if err != nil {
		return "", fmt.Errorf("bank account %s: %w", *bankAccountID, err)
	}
	return bankAccount.LedgerAccountID, nil
}
