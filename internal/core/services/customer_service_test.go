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

// --- Mock CustomerRepository ---
type MockCustomerRepository struct {
	mock.Mock
}

// Ensure MockCustomerRepository implements portsrepo.CustomerRepositoryFacade
var _ portsrepo.CustomerRepositoryFacade = (*MockCustomerRepository)(nil)

func (m *MockCustomerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListCustomers(ctx context.Context, limit int, offset int) ([]domain.Customer, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) UpdateCustomer(ctx context.Context, customer domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) DeactivateCustomer(ctx context.Context, customerID string, userID string, now time.Time) error {
	args := m.Called(ctx, customerID, userID, now)
	return args.Error(0)
}

func (m *MockCustomerRepository) ApplyWalletTransaction(ctx context.Context, txn domain.CustomerWalletTransaction) (*domain.CustomerWalletTransaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerWalletTransaction), args.Error(1)
}

func (m *MockCustomerRepository) ListWalletTransactions(ctx context.Context, customerID string, limit int, nextToken *string) ([]domain.CustomerWalletTransaction, *string, error) {
	args := m.Called(ctx, customerID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.CustomerWalletTransaction), returnedNextToken, args.Error(2)
}

func (m *MockCustomerRepository) AuditWalletBalances(ctx context.Context) ([]domain.WalletMismatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WalletMismatch), args.Error(1)
}

// --- Test Suite Setup ---
type CustomerServiceTestSuite struct {
	suite.Suite
	mockCustomerRepo *MockCustomerRepository
	service          portssvc.CustomerSvcFacade
	customer         domain.Customer
	userID           string
}

func (suite *CustomerServiceTestSuite) SetupTest() {
	suite.mockCustomerRepo = new(MockCustomerRepository)
	suite.service = services.NewCustomerService(suite.mockCustomerRepo)

	suite.userID = uuid.NewString()
	suite.customer = domain.Customer{
		CustomerID:    uuid.NewString(),
		Name:          "Amina Yusuf",
		Phone:         "+256700000001",
		WalletBalance: decimal.NewFromInt(50),
		IsActive:      true,
	}
}

// --- Test Cases ---

func (suite *CustomerServiceTestSuite) TestCreateCustomer_Success() {
	ctx := context.Background()
	req := dto.CreateCustomerRequest{
		Name:  "Joseph Okello",
		Phone: "+256700000002",
	}
	suite.mockCustomerRepo.On("SaveCustomer", ctx, mock.AnythingOfType("domain.Customer")).Return(nil).Once()

	created, err := suite.service.CreateCustomer(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.CustomerID)
	suite.Equal(req.Name, created.Name)
	suite.True(created.IsActive)
	suite.True(created.WalletBalance.IsZero())
	suite.Equal(suite.userID, created.CreatedBy)
	suite.mockCustomerRepo.AssertExpectations(suite.T())
}

func (suite *CustomerServiceTestSuite) TestCreateCustomer_DuplicatePhone() {
	ctx := context.Background()
	req := dto.CreateCustomerRequest{Name: "Twin", Phone: suite.customer.Phone}
	suite.mockCustomerRepo.On("SaveCustomer", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateCustomer(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Contains(err.Error(), req.Phone)
}

func (suite *CustomerServiceTestSuite) TestUpdateCustomer_NoFields() {
	ctx := context.Background()
	customer := suite.customer
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customer.CustomerID).Return(&customer, nil).Once()

	updated, err := suite.service.UpdateCustomer(ctx, customer.CustomerID, dto.UpdateCustomerRequest{}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(customer.Name, updated.Name)
	suite.mockCustomerRepo.AssertNotCalled(suite.T(), "UpdateCustomer", mock.Anything, mock.Anything)
}

func (suite *CustomerServiceTestSuite) TestDeactivateCustomer_WithWalletBalance() {
	ctx := context.Background()
	customer := suite.customer // WalletBalance 50; deactivation still allowed
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customer.CustomerID).Return(&customer, nil).Once()
	suite.mockCustomerRepo.On("DeactivateCustomer", ctx, customer.CustomerID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.DeactivateCustomer(ctx, customer.CustomerID, suite.userID)

	suite.Require().NoError(err)
	suite.mockCustomerRepo.AssertExpectations(suite.T())
}

func (suite *CustomerServiceTestSuite) TestApplyWalletTransaction_Credit() {
	ctx := context.Background()
	customer := suite.customer
	req := dto.ApplyWalletTransactionRequest{
		TransactionType: domain.WalletCredit,
		Amount:          decimal.RequireFromString("25.50"),
		Reason:          "Cash top-up at counter",
	}

	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customer.CustomerID).Return(&customer, nil).Once()

	var submitted domain.CustomerWalletTransaction
	suite.mockCustomerRepo.On("ApplyWalletTransaction", ctx, mock.AnythingOfType("domain.CustomerWalletTransaction")).
		Run(func(args mock.Arguments) {
			submitted = args.Get(1).(domain.CustomerWalletTransaction)
		}).
		Return(&domain.CustomerWalletTransaction{
			WalletTxnID:     uuid.NewString(),
			CustomerID:      customer.CustomerID,
			TransactionType: domain.WalletCredit,
			Amount:          req.Amount,
			BalanceAfter:    decimal.RequireFromString("75.50"),
			Reason:          req.Reason,
		}, nil).Once()

	applied, err := suite.service.ApplyWalletTransaction(ctx, customer.CustomerID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(applied)
	suite.True(applied.BalanceAfter.Equal(decimal.RequireFromString("75.50")))

	// The movement references itself; sale-driven movements reference the sale.
	suite.Require().NotNil(submitted.Reference)
	suite.Equal(domain.RefWallet, submitted.Reference.Kind)
	suite.Equal(submitted.WalletTxnID, submitted.Reference.ID)
	suite.Equal(suite.userID, submitted.CreatedBy)

	suite.mockCustomerRepo.AssertExpectations(suite.T())
}

func (suite *CustomerServiceTestSuite) TestApplyWalletTransaction_InsufficientFunds() {
	ctx := context.Background()
	customer := suite.customer
	req := dto.ApplyWalletTransactionRequest{
		TransactionType: domain.WalletDebit,
		Amount:          decimal.NewFromInt(500), // More than the balance of 50
		Reason:          "Pay for sale",
	}
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customer.CustomerID).Return(&customer, nil).Once()
	suite.mockCustomerRepo.On("ApplyWalletTransaction", ctx, mock.Anything).Return(nil, apperrors.ErrInsufficientFunds).Once()

	_, err := suite.service.ApplyWalletTransaction(ctx, customer.CustomerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.mockCustomerRepo.AssertExpectations(suite.T())
}

func (suite *CustomerServiceTestSuite) TestApplyWalletTransaction_InactiveCustomer() {
	ctx := context.Background()
	inactive := suite.customer
	inactive.IsActive = false
	req := dto.ApplyWalletTransactionRequest{
		TransactionType: domain.WalletCredit,
		Amount:          decimal.NewFromInt(10),
		Reason:          "Top-up",
	}
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, inactive.CustomerID).Return(&inactive, nil).Once()

	_, err := suite.service.ApplyWalletTransaction(ctx, inactive.CustomerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCustomerRepo.AssertNotCalled(suite.T(), "ApplyWalletTransaction", mock.Anything, mock.Anything)
}

func (suite *CustomerServiceTestSuite) TestApplyWalletTransaction_NonPositiveAmount() {
	ctx := context.Background()
	customer := suite.customer
	req := dto.ApplyWalletTransactionRequest{
		TransactionType: domain.WalletCredit,
		Amount:          decimal.Zero,
		Reason:          "Nothing",
	}
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customer.CustomerID).Return(&customer, nil).Once()

	_, err := suite.service.ApplyWalletTransaction(ctx, customer.CustomerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockCustomerRepo.AssertNotCalled(suite.T(), "ApplyWalletTransaction", mock.Anything, mock.Anything)
}

func (suite *CustomerServiceTestSuite) TestApplyWalletTransaction_CustomerNotFound() {
	ctx := context.Background()
	customerID := uuid.NewString()
	req := dto.ApplyWalletTransactionRequest{
		TransactionType: domain.WalletCredit,
		Amount:          decimal.NewFromInt(10),
		Reason:          "Top-up",
	}
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customerID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ApplyWalletTransaction(ctx, customerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *CustomerServiceTestSuite) TestListWalletTransactions_Success() {
	ctx := context.Background()
	customer := suite.customer
	txns := []domain.CustomerWalletTransaction{
		{WalletTxnID: uuid.NewString(), CustomerID: customer.CustomerID, TransactionType: domain.WalletCredit, Amount: decimal.NewFromInt(50), BalanceAfter: decimal.NewFromInt(50)},
	}
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customer.CustomerID).Return(&customer, nil).Once()
	suite.mockCustomerRepo.On("ListWalletTransactions", ctx, customer.CustomerID, 20, (*string)(nil)).Return(txns, "cursor", nil).Once()

	resp, err := suite.service.ListWalletTransactions(ctx, customer.CustomerID, dto.ListWalletTransactionsParams{})

	suite.Require().NoError(err)
	suite.Len(resp.Transactions, 1)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal("cursor", *resp.NextToken)
	suite.mockCustomerRepo.AssertExpectations(suite.T())
}

func (suite *CustomerServiceTestSuite) TestListWalletTransactions_CustomerNotFound() {
	ctx := context.Background()
	customerID := uuid.NewString()
	suite.mockCustomerRepo.On("FindCustomerByID", ctx, customerID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ListWalletTransactions(ctx, customerID, dto.ListWalletTransactionsParams{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockCustomerRepo.AssertNotCalled(suite.T(), "ListWalletTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Run Test Suite ---
func TestCustomerService(t *testing.T) {
	suite.Run(t, new(CustomerServiceTestSuite))
}
