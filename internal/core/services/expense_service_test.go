package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/core/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// --- Mock ExpenseRepository ---
type MockExpenseRepository struct {
	mock.Mock
}

// Ensure MockExpenseRepository implements portsrepo.ExpenseRepositoryFacade
var _ portsrepo.ExpenseRepositoryFacade = (*MockExpenseRepository)(nil)

func (m *MockExpenseRepository) FindExpenseCategoryByID(ctx context.Context, categoryID string) (*domain.ExpenseCategory, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpenseCategory), args.Error(1)
}

func (m *MockExpenseRepository) ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExpenseCategory), args.Error(1)
}

func (m *MockExpenseRepository) SaveExpenseCategory(ctx context.Context, category domain.ExpenseCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockExpenseRepository) UpdateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) ListExpenses(ctx context.Context, filter portsrepo.ExpenseListFilter, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	args := m.Called(ctx, filter, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Expense), returnedNextToken, args.Error(2)
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) UpdateExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	args := m.Called(ctx, expenseID)
	return args.Error(0)
}

func (m *MockExpenseRepository) ApproveExpense(ctx context.Context, expenseID string, approverID string, now time.Time) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, approverID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) RejectExpense(ctx context.Context, expenseID string, userID string, now time.Time) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) SetLedgerTransactionID(ctx context.Context, expenseID string, ledgerTransactionID string) error {
	args := m.Called(ctx, expenseID, ledgerTransactionID)
	return args.Error(0)
}

// --- Test Suite Setup ---
type ExpenseServiceTestSuite struct {
	suite.Suite
	mockExpenseRepo *MockExpenseRepository
	mockBankSvc     *MockBankAccountService
	mockAccountSvc  *MockAccountService
	mockPoster      *MockLedgerPoster
	service         portssvc.ExpenseSvcFacade
	category        domain.ExpenseCategory
	expenseAccount  domain.Account
	cashAccount     domain.Account
	branchID        string
	userID          string
}

func (suite *ExpenseServiceTestSuite) SetupTest() {
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockBankSvc = new(MockBankAccountService)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockPoster = new(MockLedgerPoster)
	suite.branchID = "main"
	suite.service = services.NewExpenseService(suite.mockExpenseRepo, suite.mockBankSvc, suite.mockAccountSvc, suite.mockPoster, suite.branchID)

	suite.userID = uuid.NewString()
	suite.expenseAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "5100",
		Name:            "Utilities",
		AccountTypeCode: domain.AccountTypeExpense,
		IsActive:        true,
	}
	suite.cashAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "1000",
		Name:            "Cash in Drawer",
		AccountTypeCode: domain.Asset,
		IsActive:        true,
	}
	suite.category = domain.ExpenseCategory{
		CategoryID:      uuid.NewString(),
		Name:            "Utilities",
		LedgerAccountID: &suite.expenseAccount.AccountID,
	}
}

// --- Test Cases ---

func (suite *ExpenseServiceTestSuite) TestCreateExpense_Success() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		CategoryID:  suite.category.CategoryID,
		Amount:      decimal.RequireFromString("45.50"),
		ExpenseDate: time.Now(),
		Description: "Electricity bill",
	}
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, suite.category.CategoryID).Return(&suite.category, nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.AnythingOfType("domain.Expense")).Return(nil).Once()

	created, err := suite.service.CreateExpense(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.Equal(domain.ApprovalPending, created.Status)
	suite.Equal(suite.branchID, created.BranchID)
	suite.Nil(created.LedgerTransactionID) // Nothing posts before approval
	suite.Equal(suite.userID, created.CreatedBy)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_CategoryMissing() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		CategoryID:  uuid.NewString(),
		Amount:      decimal.NewFromInt(10),
		ExpenseDate: time.Now(),
	}
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, req.CategoryID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateExpense(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_SubCentAmount() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		CategoryID:  suite.category.CategoryID,
		Amount:      decimal.RequireFromString("9.999"),
		ExpenseDate: time.Now(),
	}
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, suite.category.CategoryID).Return(&suite.category, nil).Once()

	_, err := suite.service.CreateExpense(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_InactiveBankAccount() {
	ctx := context.Background()
	inactiveBank := domain.BankAccount{
		BankAccountID:   uuid.NewString(),
		LedgerAccountID: uuid.NewString(),
		IsActive:        false,
	}
	req := dto.CreateExpenseRequest{
		CategoryID:            suite.category.CategoryID,
		Amount:                decimal.NewFromInt(30),
		ExpenseDate:           time.Now(),
		PaidFromBankAccountID: &inactiveBank.BankAccountID,
	}
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, suite.category.CategoryID).Return(&suite.category, nil).Once()
	suite.mockBankSvc.On("GetBankAccountByID", ctx, inactiveBank.BankAccountID).Return(&inactiveBank, nil).Once()

	_, err := suite.service.CreateExpense(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestApproveExpense_PostsAgainstCategoryAccount() {
	ctx := context.Background()
	approved := &domain.Expense{
		ExpenseID:   uuid.NewString(),
		CategoryID:  suite.category.CategoryID,
		Amount:      decimal.RequireFromString("45.50"),
		ExpenseDate: time.Now().Add(-time.Hour),
		Description: "Electricity bill",
		Status:      domain.ApprovalApproved,
		BranchID:    suite.branchID,
	}
	ledgerTxnID := uuid.NewString()

	suite.mockExpenseRepo.On("ApproveExpense", ctx, approved.ExpenseID, suite.userID, mock.AnythingOfType("time.Time")).Return(approved, nil).Once()
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, suite.category.CategoryID).Return(&suite.category, nil).Once()
	// Paid in cash: the credit leg resolves through the cash chart default.
	suite.mockAccountSvc.On("ResolveDefaultAccount", ctx, domain.RoleCash).Return(&suite.cashAccount, nil).Once()

	var postedEntries []domain.EntryInput
	expectedRef := domain.Reference{Kind: domain.RefExpense, ID: approved.ExpenseID}
	suite.mockPoster.On("PostForReference", ctx, expectedRef, approved.ExpenseDate, "Expense: Electricity bill", mock.AnythingOfType("[]domain.EntryInput"), suite.branchID, suite.userID).
		Run(func(args mock.Arguments) {
			postedEntries = args.Get(4).([]domain.EntryInput)
		}).
		Return(domain.PostingResult{Posted: true, TransactionID: ledgerTxnID}).Once()
	suite.mockExpenseRepo.On("SetLedgerTransactionID", ctx, approved.ExpenseID, ledgerTxnID).Return(nil).Once()

	expense, result, err := suite.service.ApproveExpense(ctx, approved.ExpenseID, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.Posted)
	suite.Require().NotNil(expense.LedgerTransactionID)
	suite.Equal(ledgerTxnID, *expense.LedgerTransactionID)

	// Debit the category's expense account, credit cash.
	suite.Require().Len(postedEntries, 2)
	suite.Equal(suite.expenseAccount.AccountID, postedEntries[0].AccountID)
	suite.Equal(domain.Debit, postedEntries[0].EntryType)
	suite.Equal(suite.cashAccount.AccountID, postedEntries[1].AccountID)
	suite.Equal(domain.Credit, postedEntries[1].EntryType)

	suite.mockExpenseRepo.AssertExpectations(suite.T())
	suite.mockPoster.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestApproveExpense_UnmappedCategoryFallsBack() {
	ctx := context.Background()
	unmapped := domain.ExpenseCategory{
		CategoryID: uuid.NewString(),
		Name:       "Miscellaneous",
		// No mapped ledger account
	}
	generalExpense := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "5000",
		Name:            "General Expense",
		AccountTypeCode: domain.AccountTypeExpense,
		IsActive:        true,
	}
	approved := &domain.Expense{
		ExpenseID:   uuid.NewString(),
		CategoryID:  unmapped.CategoryID,
		Amount:      decimal.NewFromInt(15),
		ExpenseDate: time.Now(),
		Status:      domain.ApprovalApproved,
		BranchID:    suite.branchID,
	}

	suite.mockExpenseRepo.On("ApproveExpense", ctx, approved.ExpenseID, suite.userID, mock.AnythingOfType("time.Time")).Return(approved, nil).Once()
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, unmapped.CategoryID).Return(&unmapped, nil).Once()
	suite.mockAccountSvc.On("ResolveDefaultAccount", ctx, domain.RoleGeneralExpense).Return(&generalExpense, nil).Once()
	suite.mockAccountSvc.On("ResolveDefaultAccount", ctx, domain.RoleCash).Return(&suite.cashAccount, nil).Once()

	var postedEntries []domain.EntryInput
	suite.mockPoster.On("PostForReference", ctx, mock.AnythingOfType("domain.Reference"), approved.ExpenseDate, "Expense: Miscellaneous", mock.AnythingOfType("[]domain.EntryInput"), suite.branchID, suite.userID).
		Run(func(args mock.Arguments) {
			postedEntries = args.Get(4).([]domain.EntryInput)
		}).
		Return(domain.PostingResult{Posted: true, TransactionID: uuid.NewString()}).Once()
	suite.mockExpenseRepo.On("SetLedgerTransactionID", ctx, approved.ExpenseID, mock.AnythingOfType("string")).Return(nil).Once()

	_, result, err := suite.service.ApproveExpense(ctx, approved.ExpenseID, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.Posted)
	suite.Require().Len(postedEntries, 2)
	suite.Equal(generalExpense.AccountID, postedEntries[0].AccountID)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestApproveExpense_PostingFails() {
	ctx := context.Background()
	approved := &domain.Expense{
		ExpenseID:   uuid.NewString(),
		CategoryID:  suite.category.CategoryID,
		Amount:      decimal.NewFromInt(45),
		ExpenseDate: time.Now(),
		Status:      domain.ApprovalApproved,
		BranchID:    suite.branchID,
	}

	suite.mockExpenseRepo.On("ApproveExpense", ctx, approved.ExpenseID, suite.userID, mock.AnythingOfType("time.Time")).Return(approved, nil).Once()
	suite.mockExpenseRepo.On("FindExpenseCategoryByID", ctx, suite.category.CategoryID).Return(&suite.category, nil).Once()
	suite.mockAccountSvc.On("ResolveDefaultAccount", ctx, domain.RoleCash).Return(&suite.cashAccount, nil).Once()
	suite.mockPoster.On("PostForReference", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.PostingResult{Posted: false, FailureReason: "account deactivated since approval"}).Once()

	// The approval stands; the caller gets the failure in the result.
	expense, result, err := suite.service.ApproveExpense(ctx, approved.ExpenseID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalApproved, expense.Status)
	suite.False(result.Posted)
	suite.Equal("account deactivated since approval", result.FailureReason)
	suite.Nil(expense.LedgerTransactionID)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SetLedgerTransactionID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestApproveExpense_AlreadyApproved() {
	ctx := context.Background()
	expenseID := uuid.NewString()
	suite.mockExpenseRepo.On("ApproveExpense", ctx, expenseID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil, apperrors.ErrAlreadyCompleted).Once()

	_, result, err := suite.service.ApproveExpense(ctx, expenseID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadyCompleted)
	suite.False(result.Posted)
	suite.mockPoster.AssertNotCalled(suite.T(), "PostForReference", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestRejectExpense_Success() {
	ctx := context.Background()
	rejected := &domain.Expense{
		ExpenseID: uuid.NewString(),
		Status:    domain.ApprovalRejected,
	}
	suite.mockExpenseRepo.On("RejectExpense", ctx, rejected.ExpenseID, suite.userID, mock.AnythingOfType("time.Time")).Return(rejected, nil).Once()

	got, err := suite.service.RejectExpense(ctx, rejected.ExpenseID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalRejected, got.Status)
	suite.mockPoster.AssertNotCalled(suite.T(), "PostForReference", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestUpdateExpense_OnlyPending() {
	ctx := context.Background()
	approved := &domain.Expense{
		ExpenseID: uuid.NewString(),
		Status:    domain.ApprovalApproved,
	}
	newAmount := decimal.NewFromInt(99)
	suite.mockExpenseRepo.On("FindExpenseByID", ctx, approved.ExpenseID).Return(approved, nil).Once()

	_, err := suite.service.UpdateExpense(ctx, approved.ExpenseID, dto.UpdateExpenseRequest{Amount: &newAmount}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestDeleteExpense_OnlyPending() {
	ctx := context.Background()
	approved := &domain.Expense{
		ExpenseID: uuid.NewString(),
		Status:    domain.ApprovalApproved,
	}
	suite.mockExpenseRepo.On("FindExpenseByID", ctx, approved.ExpenseID).Return(approved, nil).Once()

	err := suite.service.DeleteExpense(ctx, approved.ExpenseID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "DeleteExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCreateExpenseCategory_Success() {
	ctx := context.Background()
	req := dto.CreateCategoryRequest{
		Name:            "Utilities",
		LedgerAccountID: &suite.expenseAccount.AccountID,
	}
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.expenseAccount.AccountID).Return(&suite.expenseAccount, nil).Once()
	suite.mockExpenseRepo.On("SaveExpenseCategory", ctx, mock.AnythingOfType("domain.ExpenseCategory")).Return(nil).Once()

	category, err := suite.service.CreateExpenseCategory(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(req.Name, category.Name)
	suite.Require().NotNil(category.LedgerAccountID)
	suite.Equal(suite.expenseAccount.AccountID, *category.LedgerAccountID)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestCreateExpenseCategory_WrongAccountType() {
	ctx := context.Background()
	req := dto.CreateCategoryRequest{
		Name:            "Misfiled",
		LedgerAccountID: &suite.cashAccount.AccountID, // Asset, not expense
	}
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil).Once()

	_, err := suite.service.CreateExpenseCategory(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpenseCategory", mock.Anything, mock.Anything)
}

// --- Run Test Suite ---
func TestExpenseService(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
