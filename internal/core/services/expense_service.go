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

// expenseService implements the ExpenseSvcFacade interface.
type expenseService struct {
	BaseService
	expenseRepo    portsrepo.ExpenseRepositoryFacade
	bankAccountSvc portssvc.BankAccountSvcFacade
	accountSvc     portssvc.AccountSvcFacade
	poster         portssvc.LedgerPoster
	branchID       string
}

// NewExpenseService creates a new expense service instance.
func NewExpenseService(
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	bankAccountSvc portssvc.BankAccountSvcFacade,
	accountSvc portssvc.AccountSvcFacade,
	poster portssvc.LedgerPoster,
	branchID string,
) portssvc.ExpenseSvcFacade {
	return &expenseService{
		expenseRepo:    expenseRepo,
		bankAccountSvc: bankAccountSvc,
		accountSvc:     accountSvc,
		poster:         poster,
		branchID:       branchID,
	}
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// validateCategoryAccount checks that a category's mapped ledger account
// exists, is active, and carries the expected account type. Shared with the
// income service.
func validateCategoryAccount(ctx context.Context, accountSvc portssvc.AccountSvcFacade, accountID string, want domain.AccountTypeCode) error {
	account, err := accountSvc.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("ledger account %s: %w", accountID, err)
	}
	if !account.IsActive {
		return fmt.Errorf("%w: ledger account %s", apperrors.ErrAccountInactive, accountID)
	}
	if account.AccountTypeCode != want {
		return fmt.Errorf("%w: ledger account %s is of type %s, expected %s", apperrors.ErrValidation, accountID, account.AccountTypeCode, want)
	}
	return nil
}

// CreateExpenseCategory persists a new category after checking that any
// mapped ledger account is an active EXPENSE account.
func (s *expenseService) CreateExpenseCategory(ctx context.Context, req dto.CreateCategoryRequest, userID string) (*domain.ExpenseCategory, error) {
	if req.LedgerAccountID != nil {
		if err := validateCategoryAccount(ctx, s.accountSvc, *req.LedgerAccountID, domain.AccountTypeExpense); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	category := domain.ExpenseCategory{
		CategoryID:      uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		LedgerAccountID: req.LedgerAccountID,
	}
	category.Touch(userID, now)

	if err := s.expenseRepo.SaveExpenseCategory(ctx, category); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: expense category %q already exists", apperrors.ErrDuplicate, req.Name)
		}
		s.LogError(ctx, err, "Failed to save expense category")
		return nil, fmt.Errorf("failed to save expense category: %w", err)
	}

	s.LogInfo(ctx, "Expense category created", "category_id", category.CategoryID, "name", category.Name)
	return &category, nil
}

// UpdateExpenseCategory updates an existing category.
func (s *expenseService) UpdateExpenseCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, userID string) (*domain.ExpenseCategory, error) {
	category, err := s.expenseRepo.FindExpenseCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense category %s: %w", categoryID, err)
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.LedgerAccountID != nil {
		if err := validateCategoryAccount(ctx, s.accountSvc, *req.LedgerAccountID, domain.AccountTypeExpense); err != nil {
			return nil, err
		}
		category.LedgerAccountID = req.LedgerAccountID
	}
	category.MarkUpdated(userID, time.Now().UTC())

	if err := s.expenseRepo.UpdateExpenseCategory(ctx, *category); err != nil {
		s.LogError(ctx, err, "Failed to update expense category", "category_id", categoryID)
		return nil, fmt.Errorf("failed to update expense category: %w", err)
	}
	return category, nil
}

// ListExpenseCategories retrieves all expense categories.
func (s *expenseService) ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	categories, err := s.expenseRepo.ListExpenseCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense categories: %w", err)
	}
	return categories, nil
}

// GetExpenseByID retrieves a specific expense by its unique identifier.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	return expense, nil
}

// ListExpenses retrieves a paginated list of expenses.
func (s *expenseService) ListExpenses(ctx context.Context, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := portsrepo.ExpenseListFilter{
		CategoryID: params.CategoryID,
		From:       params.From,
		To:         params.To,
	}
	if params.Status != nil {
		status := domain.ApprovalStatus(*params.Status)
		filter.Status = &status
	}

	expenses, nextToken, err := s.expenseRepo.ListExpenses(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list expenses")
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	items := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, dto.ToExpenseResponse(&expenses[i]))
	}
	return &dto.ListExpensesResponse{Expenses: items, NextToken: nextToken}, nil
}

// CreateExpense records a new expense in PENDING state. Nothing posts yet.
func (s *expenseService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, userID string) (*domain.Expense, error) {
	if _, err := s.expenseRepo.FindExpenseCategoryByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("expense category %s: %w", req.CategoryID, err)
	}
	if err := accounting.ValidateAmountPrecision(req.Amount); err != nil {
		return nil, err
	}
	if req.PaidFromBankAccountID != nil {
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *req.PaidFromBankAccountID)
		if err != nil {
			return nil, fmt.Errorf("bank account %s: %w", *req.PaidFromBankAccountID, err)
		}
		if !bankAccount.IsActive {
			return nil, fmt.Errorf("%w: bank account %s is inactive", apperrors.ErrValidation, bankAccount.BankAccountID)
		}
	}

	now := time.Now().UTC()
	expense := domain.Expense{
		ExpenseID:             uuid.NewString(),
		CategoryID:            req.CategoryID,
		Amount:                req.Amount,
		ExpenseDate:           req.ExpenseDate,
		Description:           req.Description,
		PaidFromBankAccountID: req.PaidFromBankAccountID,
		Status:                domain.ApprovalPending,
		BranchID:              s.branchID,
	}
	expense.Touch(userID, now)

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		s.LogError(ctx, err, "Failed to save expense")
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.LogInfo(ctx, "Expense recorded", "expense_id", expense.ExpenseID, "amount", expense.Amount.String())
	return &expense, nil
}

// UpdateExpense updates a PENDING expense.
func (s *expenseService) UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, userID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	if expense.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("%w: expense %s is %s, only PENDING expenses can be updated", apperrors.ErrValidation, expenseID, expense.Status)
	}

	if req.CategoryID != nil {
		if _, err := s.expenseRepo.FindExpenseCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("expense category %s: %w", *req.CategoryID, err)
		}
		expense.CategoryID = *req.CategoryID
	}
	if req.Amount != nil {
		if err := accounting.ValidateAmountPrecision(*req.Amount); err != nil {
			return nil, err
		}
		expense.Amount = *req.Amount
	}
	if req.ExpenseDate != nil {
		expense.ExpenseDate = *req.ExpenseDate
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.PaidFromBankAccountID != nil {
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *req.PaidFromBankAccountID)
		if err != nil {
			return nil, fmt.Errorf("bank account %s: %w", *req.PaidFromBankAccountID, err)
		}
		if !bankAccount.IsActive {
			return nil, fmt.Errorf("%w: bank account %s is inactive", apperrors.ErrValidation, bankAccount.BankAccountID)
		}
		expense.PaidFromBankAccountID = req.PaidFromBankAccountID
	}
	expense.MarkUpdated(userID, time.Now().UTC())

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		s.LogError(ctx, err, "Failed to update expense", "expense_id", expenseID)
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return expense, nil
}

// DeleteExpense removes a PENDING expense.
func (s *expenseService) DeleteExpense(ctx context.Context, expenseID string, userID string) error {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	if expense.Status != domain.ApprovalPending {
		return fmt.Errorf("%w: expense %s is %s, only PENDING expenses can be deleted", apperrors.ErrValidation, expenseID, expense.Status)
	}

	if err := s.expenseRepo.DeleteExpense(ctx, expenseID); err != nil {
		s.LogError(ctx, err, "Failed to delete expense", "expense_id", expenseID)
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.LogInfo(ctx, "Expense deleted", "expense_id", expenseID, "deleted_by", userID)
	return nil
}

// ApproveExpense flips the status first and posts second. The conditional
// UPDATE in the repository guarantees the posting runs at most once per
// expense; a posting failure is carried in the result, never unwinds the
// approval.
func (s *expenseService) ApproveExpense(ctx context.Context, expenseID string, userID string) (*domain.Expense, domain.PostingResult, error) {
	now := time.Now().UTC()

	expense, err := s.expenseRepo.ApproveExpense(ctx, expenseID, userID, now)
	if err != nil {
		return nil, domain.PostingResult{}, fmt.Errorf("failed to approve expense %s: %w", expenseID, err)
	}

	result := s.postApprovedExpense(ctx, expense, userID)
	if result.Posted {
		if err := s.expenseRepo.SetLedgerTransactionID(ctx, expenseID, result.TransactionID); err != nil {
			// The posting exists; only the back-link is missing. Leave it
			// to reconciliation rather than failing the approval.
			s.LogError(ctx, err, "Failed to link ledger transaction to expense",
				"expense_id", expenseID, "transaction_id", result.TransactionID)
		}
		expense.LedgerTransactionID = &result.TransactionID
	} else {
		s.LogWarn(ctx, "Expense approved without ledger posting",
			"expense_id", expenseID, "reason", result.FailureReason)
	}

	return expense, result, nil
}

// RejectExpense transitions PENDING to REJECTED.
func (s *expenseService) RejectExpense(ctx context.Context, expenseID string, userID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.RejectExpense(ctx, expenseID, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to reject expense %s: %w", expenseID, err)
	}

	s.LogInfo(ctx, "Expense rejected", "expense_id", expenseID, "rejected_by", userID)
	return expense, nil
}

// postApprovedExpense builds and submits the double entry for an approved
// expense: debit the category's expense account, credit the money source.
func (s *expenseService) postApprovedExpense(ctx context.Context, expense *domain.Expense, userID string) domain.PostingResult {
	category, err := s.expenseRepo.FindExpenseCategoryByID(ctx, expense.CategoryID)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve category %s: %v", expense.CategoryID, err)}
	}

	debitAccountID, err := s.resolveCategoryAccount(ctx, category.LedgerAccountID, domain.RoleGeneralExpense)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve expense account: %v", err)}
	}
	creditAccountID, err := s.resolveMoneyAccount(ctx, expense.PaidFromBankAccountID)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve payment account: %v", err)}
	}

	description := expense.Description
	if description == "" {
		description = category.Name
	}

	ref := domain.Reference{Kind: domain.RefExpense, ID: expense.ExpenseID}
	entries := []domain.EntryInput{
		{AccountID: debitAccountID, EntryType: domain.Debit, Amount: expense.Amount},
		{AccountID: creditAccountID, EntryType: domain.Credit, Amount: expense.Amount},
	}
	return s.poster.PostForReference(ctx, ref, expense.ExpenseDate, fmt.Sprintf("Expense: %s", description), entries, expense.BranchID, userID)
}

// resolveCategoryAccount picks the category's mapped account when set,
// falling back to the chart default for the given role.
func (s *expenseService) resolveCategoryAccount(ctx context.Context, ledgerAccountID *string, fallback domain.AccountRole) (string, error) {
	if ledgerAccountID != nil {
		return *ledgerAccountID, nil
	}
	account, err := s.accountSvc.ResolveDefaultAccount(ctx, fallback)
	if err != nil {
		return "", err
	}
	return account.AccountID, nil
}

// resolveMoneyAccount maps an optional bank account to its ledger account,
// defaulting to the cash account when none is given.
func (s *expenseService) resolveMoneyAccount(ctx context.Context, bankAccountID *string) (string, error) {
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
