package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

// Ensure MockAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, filter portsrepo.AccountListFilter, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountTypes(ctx context.Context) ([]domain.AccountType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountType), args.Error(1)
}

func (m *MockAccountRepository) FindAccountTypesByCodes(ctx context.Context, codes []domain.AccountTypeCode) (map[domain.AccountTypeCode]domain.AccountType, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.AccountTypeCode]domain.AccountType), args.Error(1)
}

func (m *MockAccountRepository) FindDefaultAccountID(ctx context.Context, role domain.AccountRole) (string, error) {
	args := m.Called(ctx, role)
	return args.String(0), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) SetDefaultAccount(ctx context.Context, role domain.AccountRole, accountID string) error {
	args := m.Called(ctx, role, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, balanceChanges, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) ComputeBalance(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) RecomputeBalance(ctx context.Context, accountID string, userID string, now time.Time) (*domain.BalanceResult, error) {
	args := m.Called(ctx, accountID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceResult), args.Error(1)
}

// --- Test Suite Setup ---
type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade
	assetType       domain.AccountType
	cashAccount     domain.Account
	userID          string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewAccountServiceImpl(suite.mockAccountRepo)

	suite.userID = uuid.NewString()
	suite.assetType = domain.AccountType{Code: domain.Asset, Name: "Asset", NormalBalance: domain.NormalDebit}
	suite.cashAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "1000",
		Name:            "Cash in Drawer",
		AccountTypeCode: domain.Asset,
		CurrentBalance:  decimal.RequireFromString("123.45"),
		IsActive:        true,
	}
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:           "1010",
		Name:           "Till Two",
		AccountType:    domain.Asset,
		OpeningBalance: decimal.RequireFromString("250.00"),
	}

	suite.mockAccountRepo.On("FindAccountTypesByCodes", ctx, []domain.AccountTypeCode{domain.Asset}).
		Return(map[domain.AccountTypeCode]domain.AccountType{domain.Asset: suite.assetType}, nil).Once()

	var saved domain.Account
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.Account)
		}).
		Return(nil).Once()

	created, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.AccountID)
	suite.Equal(req.Code, created.Code)
	suite.Equal(domain.Asset, created.AccountTypeCode)
	suite.True(created.IsActive)
	// The cache starts at the opening balance; no entries exist yet.
	suite.True(created.CurrentBalance.Equal(req.OpeningBalance))
	suite.Equal(suite.userID, created.CreatedBy)
	suite.Equal(created.AccountID, saved.AccountID)

	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnknownType() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:        "9999",
		Name:        "Mystery",
		AccountType: domain.AccountTypeCode("GOODWILL"),
	}
	suite.mockAccountRepo.On("FindAccountTypesByCodes", ctx, mock.Anything).
		Return(map[domain.AccountTypeCode]domain.AccountType{}, nil).Once()

	_, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_OpeningBalanceTooPrecise() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:           "1020",
		Name:           "Petty Cash",
		AccountType:    domain.Asset,
		OpeningBalance: decimal.RequireFromString("10.999"), // Sub-cent
	}
	suite.mockAccountRepo.On("FindAccountTypesByCodes", ctx, mock.Anything).
		Return(map[domain.AccountTypeCode]domain.AccountType{domain.Asset: suite.assetType}, nil).Once()

	_, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ParentTypeMismatch() {
	ctx := context.Background()
	parent := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "2000",
		AccountTypeCode: domain.Liability,
		IsActive:        true,
	}
	req := dto.CreateAccountRequest{
		Code:            "1030",
		Name:            "Card Clearing",
		AccountType:     domain.Asset,
		ParentAccountID: &parent.AccountID,
	}
	suite.mockAccountRepo.On("FindAccountTypesByCodes", ctx, mock.Anything).
		Return(map[domain.AccountTypeCode]domain.AccountType{domain.Asset: suite.assetType}, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, parent.AccountID).Return(&parent, nil).Once()

	_, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateCode() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:        "1000", // Taken
		Name:        "Second Drawer",
		AccountType: domain.Asset,
	}
	suite.mockAccountRepo.On("FindAccountTypesByCodes", ctx, mock.Anything).
		Return(map[domain.AccountTypeCode]domain.AccountType{domain.Asset: suite.assetType}, nil).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_Success() {
	ctx := context.Background()
	account := suite.cashAccount
	newName := "Front Till"
	req := dto.UpdateAccountRequest{Name: &newName}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, account.AccountID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(newName, updated.Name)
	suite.Equal(suite.userID, updated.LastUpdatedBy)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_NoFields() {
	ctx := context.Background()
	account := suite.cashAccount
	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, account.AccountID, dto.UpdateAccountRequest{}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(account.Name, updated.Name)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_NotFound() {
	ctx := context.Background()
	accountID := uuid.NewString()
	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.DeactivateAccount(ctx, accountID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetBalance_ServesCache() {
	ctx := context.Background()
	account := suite.cashAccount
	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()

	balance, err := suite.service.GetBalance(ctx, account.AccountID, nil)

	suite.Require().NoError(err)
	suite.True(balance.Equal(account.CurrentBalance))
	// A current-balance read must not touch the entry log.
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "ComputeBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetBalance_AsOfRecomputes() {
	ctx := context.Background()
	asOf := time.Now().Add(-30 * 24 * time.Hour)
	computed := decimal.RequireFromString("99.95")
	suite.mockAccountRepo.On("ComputeBalance", ctx, suite.cashAccount.AccountID, &asOf).Return(computed, nil).Once()

	balance, err := suite.service.GetBalance(ctx, suite.cashAccount.AccountID, &asOf)

	suite.Require().NoError(err)
	suite.True(balance.Equal(computed))
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestRecomputeBalance_ReportsCorrection() {
	ctx := context.Background()
	result := &domain.BalanceResult{
		AccountID:    suite.cashAccount.AccountID,
		CachedBefore: decimal.RequireFromString("123.45"),
		Computed:     decimal.RequireFromString("120.00"),
		Corrected:    true,
	}
	suite.mockAccountRepo.On("RecomputeBalance", ctx, suite.cashAccount.AccountID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(result, nil).Once()

	got, err := suite.service.RecomputeBalance(ctx, suite.cashAccount.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.True(got.Corrected)
	suite.True(got.Computed.Equal(result.Computed))
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestSetDefaultAccount_Success() {
	ctx := context.Background()
	account := suite.cashAccount
	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()
	suite.mockAccountRepo.On("SetDefaultAccount", ctx, domain.RoleCash, account.AccountID).Return(nil).Once()

	err := suite.service.SetDefaultAccount(ctx, domain.RoleCash, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestSetDefaultAccount_UnknownRole() {
	ctx := context.Background()

	err := suite.service.SetDefaultAccount(ctx, domain.AccountRole("PIGGY_BANK"), suite.cashAccount.AccountID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestSetDefaultAccount_InactiveAccount() {
	ctx := context.Background()
	inactive := suite.cashAccount
	inactive.IsActive = false
	suite.mockAccountRepo.On("FindAccountByID", ctx, inactive.AccountID).Return(&inactive, nil).Once()

	err := suite.service.SetDefaultAccount(ctx, domain.RoleCash, inactive.AccountID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountInactive)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SetDefaultAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestResolveDefaultAccount_Success() {
	ctx := context.Background()
	account := suite.cashAccount
	suite.mockAccountRepo.On("FindDefaultAccountID", ctx, domain.RoleCash).Return(account.AccountID, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()

	resolved, err := suite.service.ResolveDefaultAccount(ctx, domain.RoleCash)

	suite.Require().NoError(err)
	suite.Equal(account.AccountID, resolved.AccountID)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestResolveDefaultAccount_NotConfigured() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindDefaultAccountID", ctx, domain.RoleOtherIncome).Return("", apperrors.ErrNotFound).Once()

	_, err := suite.service.ResolveDefaultAccount(ctx, domain.RoleOtherIncome)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestResolveDefaultAccount_InactiveDefault() {
	ctx := context.Background()
	inactive := suite.cashAccount
	inactive.IsActive = false
	suite.mockAccountRepo.On("FindDefaultAccountID", ctx, domain.RoleCash).Return(inactive.AccountID, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, inactive.AccountID).Return(&inactive, nil).Once()

	_, err := suite.service.ResolveDefaultAccount(ctx, domain.RoleCash)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountInactive)
}

func (suite *AccountServiceTestSuite) TestListAccounts_MapsTypeFilter() {
	ctx := context.Background()
	typeFilter := "ASSET"
	assetCode := domain.Asset
	expectedFilter := portsrepo.AccountListFilter{AccountTypeCode: &assetCode, ActiveOnly: true}
	accounts := []domain.Account{suite.cashAccount}

	suite.mockAccountRepo.On("ListAccounts", ctx, expectedFilter, 10, 0).Return(accounts, nil).Once()

	got, err := suite.service.ListAccounts(ctx, dto.ListAccountsParams{AccountType: &typeFilter, ActiveOnly: true, Limit: 10})

	suite.Require().NoError(err)
	suite.Len(got, 1)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestListAccounts_RepoError() {
	ctx := context.Background()
	repoErr := assert.AnError
	suite.mockAccountRepo.On("ListAccounts", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, repoErr).Once()

	_, err := suite.service.ListAccounts(ctx, dto.ListAccountsParams{Limit: 20})

	suite.Require().Error(err)
	suite.Contains(err.Error(), repoErr.Error())
}

// --- Run Test Suite ---
func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
