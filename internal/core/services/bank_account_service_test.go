package services_test

import (
	"context"
	"strings"
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

// --- Mock BankAccountRepository ---
type MockBankAccountRepository struct {
	mock.Mock
}

// Ensure MockBankAccountRepository implements portsrepo.BankAccountRepositoryFacade
var _ portsrepo.BankAccountRepositoryFacade = (*MockBankAccountRepository)(nil)

func (m *MockBankAccountRepository) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) FindBankAccountsByIDs(ctx context.Context, bankAccountIDs []string) (map[string]domain.BankAccount, error) {
	args := m.Called(ctx, bankAccountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) ListBankAccounts(ctx context.Context, limit int, offset int) ([]domain.BankAccount, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) SaveBankAccount(ctx context.Context, bankAccount domain.BankAccount) error {
	args := m.Called(ctx, bankAccount)
	return args.Error(0)
}

func (m *MockBankAccountRepository) UpdateBankAccount(ctx context.Context, bankAccount domain.BankAccount) error {
	args := m.Called(ctx, bankAccount)
	return args.Error(0)
}

func (m *MockBankAccountRepository) DeactivateBankAccount(ctx context.Context, bankAccountID string, userID string, now time.Time) error {
	args := m.Called(ctx, bankAccountID, userID, now)
	return args.Error(0)
}

// --- Test Suite Setup ---
type BankAccountServiceTestSuite struct {
	suite.Suite
	mockBankRepo   *MockBankAccountRepository
	mockAccountSvc *MockAccountService
	service        portssvc.BankAccountSvcFacade
	userID         string
}

func (suite *BankAccountServiceTestSuite) SetupTest() {
	suite.mockBankRepo = new(MockBankAccountRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.service = services.NewBankAccountService(suite.mockBankRepo, suite.mockAccountSvc)
	suite.userID = uuid.NewString()
}

// --- Test Cases ---

func (suite *BankAccountServiceTestSuite) TestCreateBankAccount_CreatesBackingLedgerAccount() {
	ctx := context.Background()
	req := dto.CreateBankAccountRequest{
		Name:           "Operations Account",
		BankName:       "Stanbic",
		AccountNumber:  "0102003004",
		OpeningBalance: decimal.RequireFromString("250.00"),
	}
	ledgerAccount := &domain.Account{
		AccountID:       uuid.NewString(),
		Name:            req.Name,
		AccountTypeCode: domain.Asset,
		IsActive:        true,
	}

	var accountReq dto.CreateAccountRequest
	suite.mockAccountSvc.On("CreateAccount", ctx, mock.AnythingOfType("dto.CreateAccountRequest"), suite.userID).
		Run(func(args mock.Arguments) {
			accountReq = args.Get(1).(dto.CreateAccountRequest)
		}).
		Return(ledgerAccount, nil).Once()

	var savedBankAccount domain.BankAccount
	suite.mockBankRepo.On("SaveBankAccount", ctx, mock.AnythingOfType("domain.BankAccount")).
		Run(func(args mock.Arguments) {
			savedBankAccount = args.Get(1).(domain.BankAccount)
		}).
		Return(nil).Once()

	created, err := suite.service.CreateBankAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Asset, accountReq.AccountType)
	suite.True(strings.HasPrefix(accountReq.Code, "BANK-"))
	suite.True(accountReq.OpeningBalance.Equal(req.OpeningBalance))

	suite.Equal(ledgerAccount.AccountID, savedBankAccount.LedgerAccountID)
	suite.True(savedBankAccount.CurrentBalance.Equal(req.OpeningBalance))
	suite.True(savedBankAccount.IsActive)
	suite.Equal(ledgerAccount.AccountID, created.LedgerAccountID)
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *BankAccountServiceTestSuite) TestCreateBankAccount_NegativeOpeningBalance() {
	ctx := context.Background()
	req := dto.CreateBankAccountRequest{
		Name:           "Operations Account",
		OpeningBalance: decimal.NewFromInt(-10),
	}

	_, err := suite.service.CreateBankAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BankAccountServiceTestSuite) TestCreateBankAccount_SaveFailureCleansUpLedgerAccount() {
	ctx := context.Background()
	repoErr := assert.AnError
	req := dto.CreateBankAccountRequest{Name: "Operations Account"}
	ledgerAccount := &domain.Account{AccountID: uuid.NewString(), AccountTypeCode: domain.Asset, IsActive: true}

	suite.mockAccountSvc.On("CreateAccount", ctx, mock.AnythingOfType("dto.CreateAccountRequest"), suite.userID).
		Return(ledgerAccount, nil).Once()
	suite.mockBankRepo.On("SaveBankAccount", ctx, mock.AnythingOfType("domain.BankAccount")).
		Return(repoErr).Once()
	// The ledger account just created has no postings yet; close it so it
	// does not linger in the chart.
	suite.mockAccountSvc.On("DeactivateAccount", ctx, ledgerAccount.AccountID, suite.userID).Return(nil).Once()

	_, err := suite.service.CreateBankAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *BankAccountServiceTestSuite) TestDeactivateBankAccount_ClosesLedgerAccount() {
	ctx := context.Background()
	bankAccount := &domain.BankAccount{
		BankAccountID:   uuid.NewString(),
		Name:            "Operations Account",
		LedgerAccountID: uuid.NewString(),
		IsActive:        true,
	}
	suite.mockBankRepo.On("FindBankAccountByID", ctx, bankAccount.BankAccountID).Return(bankAccount, nil).Once()
	suite.mockBankRepo.On("DeactivateBankAccount", ctx, bankAccount.BankAccountID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAccountSvc.On("DeactivateAccount", ctx, bankAccount.LedgerAccountID, suite.userID).Return(nil).Once()

	err := suite.service.DeactivateBankAccount(ctx, bankAccount.BankAccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockBankRepo.AssertExpectations(suite.T())
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *BankAccountServiceTestSuite) TestListBankAccounts_ActiveOnly() {
	ctx := context.Background()
	accounts := []domain.BankAccount{
		{BankAccountID: uuid.NewString(), Name: "Operations Account", IsActive: true},
		{BankAccountID: uuid.NewString(), Name: "Closed Account", IsActive: false},
	}
	suite.mockBankRepo.On("ListBankAccounts", ctx, mock.AnythingOfType("int"), 0).Return(accounts, nil).Twice()

	activeOnly, err := suite.service.ListBankAccounts(ctx, true)
	suite.Require().NoError(err)
	suite.Require().Len(activeOnly, 1)
	suite.Equal("Operations Account", activeOnly[0].Name)

	all, err := suite.service.ListBankAccounts(ctx, false)
	suite.Require().NoError(err)
	suite.Len(all, 2)
}

func (suite *BankAccountServiceTestSuite) TestUpdateBankAccount_NoFields() {
	ctx := context.Background()
	bankAccount := &domain.BankAccount{
		BankAccountID:   uuid.NewString(),
		Name:            "Operations Account",
		LedgerAccountID: uuid.NewString(),
		IsActive:        true,
	}
	suite.mockBankRepo.On("FindBankAccountByID", ctx, bankAccount.BankAccountID).Return(bankAccount, nil).Once()

	updated, err := suite.service.UpdateBankAccount(ctx, bankAccount.BankAccountID, dto.UpdateBankAccountRequest{}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(bankAccount.Name, updated.Name)
	suite.mockBankRepo.AssertNotCalled(suite.T(), "UpdateBankAccount", mock.Anything, mock.Anything)
}

// --- Run Test Suite ---
func TestBankAccountService(t *testing.T) {
	suite.Run(t, new(BankAccountServiceTestSuite))
}
