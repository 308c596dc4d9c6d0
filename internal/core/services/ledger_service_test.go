package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/core/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

// Ensure MockLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, limit, nextToken, includeReversals)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Transaction), returnedNextToken, args.Error(2)
}

func (m *MockLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, txn, entries, balanceChanges)
	return args.Error(0)
}

func (m *MockLedgerRepository) SaveReversal(ctx context.Context, reversing domain.Transaction, entries []domain.JournalEntry, balanceChanges map[string]decimal.Decimal, originalTransactionID string) error {
	args := m.Called(ctx, reversing, entries, balanceChanges, originalTransactionID)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.JournalEntry, error) {
	args := m.Called(ctx, transactionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.JournalEntry), returnedNextToken, args.Error(2)
}

func (m *MockLedgerRepository) FindUnbalancedTransactions(ctx context.Context) ([]domain.TransactionImbalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionImbalance), args.Error(1)
}

func (m *MockLedgerRepository) SumEntryTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return decimal.Zero, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockLedgerRepository) ComputeAccountBalanceAudits(ctx context.Context) ([]domain.AccountBalanceAudit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountBalanceAudit), args.Error(1)
}

// --- Mock AccountService (as used by LedgerService and the approval services) ---
type MockAccountService struct {
	mock.Mock
}

// Ensure MockAccountService implements the full facade
var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccountTypes(ctx context.Context) ([]domain.AccountType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountType), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	args := m.Called(ctx, accountID, userID)
	return args.Error(0)
}

func (m *MockAccountService) SetDefaultAccount(ctx context.Context, role domain.AccountRole, accountID string, userID string) error {
	args := m.Called(ctx, role, accountID, userID)
	return args.Error(0)
}

func (m *MockAccountService) GetBalance(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountService) RecomputeBalance(ctx context.Context, accountID string, userID string) (*domain.BalanceResult, error) {
	args := m.Called(ctx, accountID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceResult), args.Error(1)
}

func (m *MockAccountService) ResolveDefaultAccount(ctx context.Context, role domain.AccountRole) (*domain.Account, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Test Suite Setup ---
type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo   *MockLedgerRepository
	mockAccountSvc   *MockAccountService
	service          portssvc.LedgerSvcFacade
	assetAccount     domain.Account
	liabilityAccount domain.Account
	revenueAccount   domain.Account
	expenseAccount   domain.Account
	accountTypes     []domain.AccountType
	branchID         string
	userID           string
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.branchID = "main"
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockAccountSvc, suite.branchID)

	suite.userID = uuid.NewString()

	suite.assetAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "1000",
		Name:            "Cash in Drawer",
		AccountTypeCode: domain.Asset,
		IsActive:        true,
	}
	suite.liabilityAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "2100",
		Name:            "Customer Wallet Liability",
		AccountTypeCode: domain.Liability,
		IsActive:        true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "4000",
		Name:            "Sales Revenue",
		AccountTypeCode: domain.Revenue,
		IsActive:        true,
	}
	suite.expenseAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "5000",
		Name:            "General Expense",
		AccountTypeCode: domain.AccountTypeExpense,
		IsActive:        true,
	}

	suite.accountTypes = []domain.AccountType{
		{Code: domain.Asset, Name: "Asset", NormalBalance: domain.NormalDebit},
		{Code: domain.Liability, Name: "Liability", NormalBalance: domain.NormalCredit},
		{Code: domain.Equity, Name: "Equity", NormalBalance: domain.NormalCredit},
		{Code: domain.Revenue, Name: "Revenue", NormalBalance: domain.NormalCredit},
		{Code: domain.AccountTypeExpense, Name: "Expense", NormalBalance: domain.NormalDebit},
	}
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestPostTransaction_Success() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Cash sale over the counter",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(100)},
		},
	}

	accountsMap := map[string]domain.Account{
		suite.assetAccount.AccountID:   suite.assetAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{suite.assetAccount.AccountID, suite.revenueAccount.AccountID}).Return(accountsMap, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()

	var savedEntries []domain.JournalEntry
	var savedChanges map[string]decimal.Decimal
	suite.mockLedgerRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("[]domain.JournalEntry"), mock.AnythingOfType("map[string]decimal.Decimal")).
		Run(func(args mock.Arguments) {
			savedEntries = args.Get(2).([]domain.JournalEntry)
			savedChanges = args.Get(3).(map[string]decimal.Decimal)
		}).
		Return(nil).Once()

	created, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.TransactionID)
	suite.Equal(domain.Posted, created.Status)
	suite.Equal(suite.branchID, created.BranchID)
	suite.Equal(req.Description, created.Description)
	suite.Equal(suite.userID, created.CreatedBy)

	// Entries of a manual posting reference the transaction itself.
	suite.Require().Len(savedEntries, 2)
	for _, e := range savedEntries {
		suite.Require().NotNil(e.Reference)
		suite.Equal(domain.RefManual, e.Reference.Kind)
		suite.Equal(created.TransactionID, e.Reference.ID)
	}

	// Both sides increase: debit to a debit-normal asset, credit to a
	// credit-normal revenue.
	suite.True(savedChanges[suite.assetAccount.AccountID].Equal(decimal.NewFromInt(100)))
	suite.True(savedChanges[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(100)))

	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_EmptyDescription() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(50)},
			{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(50)},
		},
	}

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDescriptionMissing)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "GetAccountsByIDs", mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Unbalanced() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Does not balance",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(99)}, // Unbalanced
		},
	}

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnbalanced)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "GetAccountsByIDs", mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_SingleEntry() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "One-legged",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(100)},
		},
	}

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnbalanced)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_SingleAccount() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Debit and credit the same account",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(40)},
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(40)},
		},
	}

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnbalanced)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_TooManyDecimalPlaces() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Sub-cent amount",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.RequireFromString("49.995")},
			{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.RequireFromString("49.995")},
		},
	}

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_AccountNotFound() {
	ctx := context.Background()
	unknownAccountID := uuid.NewString()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Posting against a ghost account",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(100)},
			{AccountID: unknownAccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(100)},
		},
	}

	accountsMap := map[string]domain.Account{
		suite.assetAccount.AccountID: suite.assetAccount,
		// unknownAccountID is missing
	}
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(accountsMap, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), unknownAccountID)
	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_AccountInactive() {
	ctx := context.Background()
	inactiveAccount := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "5010",
		Name:            "Retired expense bucket",
		AccountTypeCode: domain.AccountTypeExpense,
		IsActive:        false, // Inactive
	}
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Posting against a deactivated account",
		Entries: []dto.EntryInputRequest{
			{AccountID: inactiveAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(25)},
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(25)},
		},
	}

	accountsMap := map[string]domain.Account{
		inactiveAccount.AccountID:    inactiveAccount,
		suite.assetAccount.AccountID: suite.assetAccount,
	}
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(accountsMap, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountInactive)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_FetchAccountsError() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Account lookup blows up",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(100)},
		},
	}
	repoErr := assert.AnError
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(nil, repoErr).Once()

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.Contains(err.Error(), repoErr.Error())
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_SaveError() {
	ctx := context.Background()
	req := dto.PostTransactionRequest{
		TransactionDate: time.Now(),
		Description:     "Save fails after validation",
		Entries: []dto.EntryInputRequest{
			{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(100)},
			{AccountID: suite.liabilityAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(100)},
		},
	}
	accountsMap := map[string]domain.Account{
		suite.assetAccount.AccountID:     suite.assetAccount,
		suite.liabilityAccount.AccountID: suite.liabilityAccount,
	}
	repoErr := assert.AnError
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(accountsMap, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()
	suite.mockLedgerRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything, mock.Anything).Return(repoErr).Once()

	_, err := suite.service.PostTransaction(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.Contains(err.Error(), repoErr.Error())
	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_Success() {
	ctx := context.Background()
	saleID := uuid.NewString()
	saleRef := &domain.Reference{Kind: domain.RefSale, ID: saleID}
	original := &domain.Transaction{
		TransactionID:   uuid.NewString(),
		TransactionDate: time.Now().Add(-24 * time.Hour),
		Description:     "Invoice 42",
		Status:          domain.Posted,
		BranchID:        suite.branchID,
	}
	originalEntries := []domain.JournalEntry{
		{
			EntryID:       uuid.NewString(),
			TransactionID: original.TransactionID,
			AccountID:     suite.assetAccount.AccountID,
			EntryType:     domain.Debit,
			Amount:        decimal.NewFromInt(75),
			Reference:     saleRef,
		},
		{
			EntryID:       uuid.NewString(),
			TransactionID: original.TransactionID,
			AccountID:     suite.revenueAccount.AccountID,
			EntryType:     domain.Credit,
			Amount:        decimal.NewFromInt(75),
			Reference:     saleRef,
		},
	}
	accountsMap := map[string]domain.Account{
		suite.assetAccount.AccountID:   suite.assetAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	suite.mockLedgerRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", ctx, original.TransactionID).Return(originalEntries, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{suite.assetAccount.AccountID, suite.revenueAccount.AccountID}).Return(accountsMap, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()

	var savedEntries []domain.JournalEntry
	var savedChanges map[string]decimal.Decimal
	suite.mockLedgerRepo.On("SaveReversal", ctx, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("[]domain.JournalEntry"), mock.AnythingOfType("map[string]decimal.Decimal"), original.TransactionID).
		Run(func(args mock.Arguments) {
			savedEntries = args.Get(2).([]domain.JournalEntry)
			savedChanges = args.Get(3).(map[string]decimal.Decimal)
		}).
		Return(nil).Once()

	reversing, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversing)
	suite.NotEqual(original.TransactionID, reversing.TransactionID)
	suite.Equal(original.TransactionID, reversing.OriginalTransactionID)
	suite.Equal(domain.Posted, reversing.Status)
	suite.Equal("Reversal of: Invoice 42", reversing.Description)
	suite.Equal(original.BranchID, reversing.BranchID)

	// Each line flips side; the origin reference is carried over unchanged.
	suite.Require().Len(savedEntries, 2)
	suite.Equal(domain.Credit, savedEntries[0].EntryType)
	suite.Equal(domain.Debit, savedEntries[1].EntryType)
	for _, e := range savedEntries {
		suite.Require().NotNil(e.Reference)
		suite.Equal(domain.RefSale, e.Reference.Kind)
		suite.Equal(saleID, e.Reference.ID)
		suite.Equal(reversing.TransactionID, e.TransactionID)
	}

	// The reversal backs both balances out.
	suite.True(savedChanges[suite.assetAccount.AccountID].Equal(decimal.NewFromInt(-75)))
	suite.True(savedChanges[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(-75)))

	suite.mockLedgerRepo.AssertExpectations(suite.T())
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_NotFound() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, transactionID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ReverseTransaction(ctx, transactionID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_OfAReversal() {
	ctx := context.Background()
	reversal := &domain.Transaction{
		TransactionID:         uuid.NewString(),
		Description:           "Reversal of: Invoice 42",
		Status:                domain.Posted,
		OriginalTransactionID: uuid.NewString(), // Marks it as a reversing transaction
	}
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, reversal.TransactionID).Return(reversal, nil).Once()

	_, err := suite.service.ReverseTransaction(ctx, reversal.TransactionID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrReversalOfReversal)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindEntriesByTransactionID", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_AlreadyReversed() {
	ctx := context.Background()
	original := &domain.Transaction{
		TransactionID:          uuid.NewString(),
		Description:            "Invoice 42",
		Status:                 domain.Reversed,
		ReversingTransactionID: uuid.NewString(),
	}
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()

	_, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadyCompleted)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveReversal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_LostRace() {
	ctx := context.Background()
	original := &domain.Transaction{
		TransactionID:   uuid.NewString(),
		TransactionDate: time.Now(),
		Description:     "Invoice 42",
		Status:          domain.Posted,
	}
	originalEntries := []domain.JournalEntry{
		{EntryID: uuid.NewString(), AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(10)},
		{EntryID: uuid.NewString(), AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(10)},
	}
	accountsMap := map[string]domain.Account{
		suite.assetAccount.AccountID:   suite.assetAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	suite.mockLedgerRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", ctx, original.TransactionID).Return(originalEntries, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(accountsMap, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()
	// A concurrent reversal won; the conditional status flip failed.
	suite.mockLedgerRepo.On("SaveReversal", ctx, mock.Anything, mock.Anything, mock.Anything, original.TransactionID).Return(apperrors.ErrAlreadyCompleted).Once()

	_, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadyCompleted)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetTransactionByID_Success() {
	ctx := context.Background()
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		Description:   "Opening balances",
		Status:        domain.Posted,
	}
	entries := []domain.JournalEntry{
		{EntryID: uuid.NewString(), TransactionID: txn.TransactionID, AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(500)},
		{EntryID: uuid.NewString(), TransactionID: txn.TransactionID, AccountID: suite.liabilityAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(500)},
	}
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", ctx, txn.TransactionID).Return(entries, nil).Once()

	gotTxn, gotEntries, err := suite.service.GetTransactionByID(ctx, txn.TransactionID)

	suite.Require().NoError(err)
	suite.Equal(txn, gotTxn)
	suite.Len(gotEntries, 2)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetTransactionByID_NotFound() {
	ctx := context.Background()
	transactionID := uuid.NewString()
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, transactionID).Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.GetTransactionByID(ctx, transactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindEntriesByTransactionID", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestListTransactions_DefaultLimit() {
	ctx := context.Background()
	txns := []domain.Transaction{
		{TransactionID: uuid.NewString(), Description: "First", Status: domain.Posted},
		{TransactionID: uuid.NewString(), Description: "Second", Status: domain.Posted},
	}
	suite.mockLedgerRepo.On("ListTransactions", ctx, 20, (*string)(nil), true).Return(txns, nil, nil).Once()

	resp, err := suite.service.ListTransactions(ctx, dto.ListTransactionsParams{IncludeReversals: true})

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Len(resp.Transactions, 2)
	suite.Nil(resp.NextToken)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListTransactions_PassesToken() {
	ctx := context.Background()
	token := "opaque-cursor"
	suite.mockLedgerRepo.On("ListTransactions", ctx, 5, &token, false).Return([]domain.Transaction{}, "next-cursor", nil).Once()

	resp, err := suite.service.ListTransactions(ctx, dto.ListTransactionsParams{Limit: 5, NextToken: &token, IncludeReversals: false})

	suite.Require().NoError(err)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal("next-cursor", *resp.NextToken)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListEntriesByAccount_Success() {
	ctx := context.Background()
	entries := []domain.JournalEntry{
		{EntryID: uuid.NewString(), AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(20)},
	}
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.assetAccount.AccountID).Return(&suite.assetAccount, nil).Once()
	suite.mockLedgerRepo.On("ListEntriesByAccountID", ctx, suite.assetAccount.AccountID, 20, (*string)(nil)).Return(entries, nil, nil).Once()

	resp, err := suite.service.ListEntriesByAccount(ctx, suite.assetAccount.AccountID, dto.ListEntriesParams{})

	suite.Require().NoError(err)
	suite.Len(resp.Entries, 1)
	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListEntriesByAccount_AccountNotFound() {
	ctx := context.Background()
	accountID := uuid.NewString()
	suite.mockAccountSvc.On("GetAccountByID", ctx, accountID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ListEntriesByAccount(ctx, accountID, dto.ListEntriesParams{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "ListEntriesByAccountID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Run Test Suite ---
func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
