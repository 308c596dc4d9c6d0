package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/core/services"
)

// --- Test Suite Setup ---
type LedgerValidationServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo   *MockLedgerRepository
	mockCustomerRepo *MockCustomerRepository
	service          portssvc.LedgerValidationSvc
	audits           []domain.AccountBalanceAudit
}

func (suite *LedgerValidationServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockCustomerRepo = new(MockCustomerRepository)
	suite.service = services.NewLedgerValidationService(suite.mockLedgerRepo, suite.mockCustomerRepo)

	// A small balanced chart: 150 + 30 of debit-normal balances against
	// 80 + 100 of credit-normal balances.
	suite.audits = []domain.AccountBalanceAudit{
		{AccountID: uuid.NewString(), Code: "1000", Name: "Cash in Drawer", AccountTypeCode: domain.Asset, NormalBalance: domain.NormalDebit, Cached: decimal.NewFromInt(150), Computed: decimal.NewFromInt(150)},
		{AccountID: uuid.NewString(), Code: "1100", Name: "Accounts Receivable", AccountTypeCode: domain.Asset, NormalBalance: domain.NormalDebit, Cached: decimal.NewFromInt(30), Computed: decimal.NewFromInt(30)},
		{AccountID: uuid.NewString(), Code: "2100", Name: "Customer Wallets", AccountTypeCode: domain.Liability, NormalBalance: domain.NormalCredit, Cached: decimal.NewFromInt(80), Computed: decimal.NewFromInt(80)},
		{AccountID: uuid.NewString(), Code: "4000", Name: "Sales Revenue", AccountTypeCode: domain.Revenue, NormalBalance: domain.NormalCredit, Cached: decimal.NewFromInt(100), Computed: decimal.NewFromInt(100)},
	}
}

// --- Test Cases ---

func (suite *LedgerValidationServiceTestSuite) TestRunValidation_HealthyLedger() {
	ctx := context.Background()
	suite.mockLedgerRepo.On("FindUnbalancedTransactions", ctx).Return([]domain.TransactionImbalance{}, nil).Once()
	suite.mockLedgerRepo.On("SumEntryTotals", ctx).Return(decimal.NewFromInt(500), decimal.NewFromInt(500), nil).Once()
	suite.mockLedgerRepo.On("ComputeAccountBalanceAudits", ctx).Return(suite.audits, nil).Once()
	suite.mockCustomerRepo.On("AuditWalletBalances", ctx).Return([]domain.WalletMismatch{}, nil).Once()

	report, err := suite.service.RunValidation(ctx)

	suite.Require().NoError(err)
	suite.True(report.Healthy)
	suite.True(report.SystemBalanced)
	suite.Empty(report.UnbalancedTransactions)
	suite.Empty(report.BalanceMismatches)
	suite.Empty(report.WalletMismatches)
	suite.False(report.RanAt.IsZero())

	suite.Require().Len(report.TrialBalance.Rows, 4)
	suite.True(report.TrialBalance.Balanced)
	suite.True(report.TrialBalance.DebitTotal.Equal(decimal.NewFromInt(180)))
	suite.True(report.TrialBalance.CreditTotal.Equal(decimal.NewFromInt(180)))
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerValidationServiceTestSuite) TestRunValidation_ReportsUnbalancedTransaction() {
	ctx := context.Background()
	imbalance := domain.TransactionImbalance{
		TransactionID: uuid.NewString(),
		DebitTotal:    decimal.NewFromInt(100),
		CreditTotal:   decimal.NewFromInt(90),
		Difference:    decimal.NewFromInt(10),
	}
	suite.mockLedgerRepo.On("FindUnbalancedTransactions", ctx).Return([]domain.TransactionImbalance{imbalance}, nil).Once()
	suite.mockLedgerRepo.On("SumEntryTotals", ctx).Return(decimal.NewFromInt(500), decimal.NewFromInt(490), nil).Once()
	suite.mockLedgerRepo.On("ComputeAccountBalanceAudits", ctx).Return(suite.audits, nil).Once()
	suite.mockCustomerRepo.On("AuditWalletBalances", ctx).Return([]domain.WalletMismatch{}, nil).Once()

	report, err := suite.service.RunValidation(ctx)

	suite.Require().NoError(err)
	suite.False(report.Healthy)
	suite.False(report.SystemBalanced)
	suite.Require().Len(report.UnbalancedTransactions, 1)
	suite.Equal(imbalance.TransactionID, report.UnbalancedTransactions[0].TransactionID)
	suite.True(report.UnbalancedTransactions[0].Difference.Equal(decimal.NewFromInt(10)))
}

func (suite *LedgerValidationServiceTestSuite) TestRunValidation_ReportsStaleCachedBalance() {
	ctx := context.Background()
	// Cached drifted; the recomputed value is what the entries support, so
	// the trial balance itself still balances.
	audits := make([]domain.AccountBalanceAudit, len(suite.audits))
	copy(audits, suite.audits)
	audits[0].Cached = decimal.NewFromInt(160)

	suite.mockLedgerRepo.On("FindUnbalancedTransactions", ctx).Return([]domain.TransactionImbalance{}, nil).Once()
	suite.mockLedgerRepo.On("SumEntryTotals", ctx).Return(decimal.NewFromInt(500), decimal.NewFromInt(500), nil).Once()
	suite.mockLedgerRepo.On("ComputeAccountBalanceAudits", ctx).Return(audits, nil).Once()
	suite.mockCustomerRepo.On("AuditWalletBalances", ctx).Return([]domain.WalletMismatch{}, nil).Once()

	report, err := suite.service.RunValidation(ctx)

	suite.Require().NoError(err)
	suite.False(report.Healthy)
	suite.True(report.SystemBalanced)
	suite.True(report.TrialBalance.Balanced)
	suite.Require().Len(report.BalanceMismatches, 1)
	suite.Equal(audits[0].AccountID, report.BalanceMismatches[0].AccountID)
	suite.True(report.BalanceMismatches[0].Cached.Equal(decimal.NewFromInt(160)))
	suite.True(report.BalanceMismatches[0].Computed.Equal(decimal.NewFromInt(150)))
	suite.True(report.BalanceMismatches[0].Difference.Equal(decimal.NewFromInt(10)))
}

func (suite *LedgerValidationServiceTestSuite) TestRunValidation_NegativeBalanceStaysOnDeclaredSide() {
	ctx := context.Background()
	// An overdrawn cash account and an over-reversed revenue account. Both
	// columns go negative by the same amount, so the totals still agree; the
	// defect shows up per row instead of hiding in a flipped column.
	audits := []domain.AccountBalanceAudit{
		{AccountID: uuid.NewString(), Code: "1000", Name: "Cash in Drawer", AccountTypeCode: domain.Asset, NormalBalance: domain.NormalDebit, Cached: decimal.NewFromInt(-20), Computed: decimal.NewFromInt(-20)},
		{AccountID: uuid.NewString(), Code: "4000", Name: "Sales Revenue", AccountTypeCode: domain.Revenue, NormalBalance: domain.NormalCredit, Cached: decimal.NewFromInt(-20), Computed: decimal.NewFromInt(-20)},
	}
	suite.mockLedgerRepo.On("FindUnbalancedTransactions", ctx).Return([]domain.TransactionImbalance{}, nil).Once()
	suite.mockLedgerRepo.On("SumEntryTotals", ctx).Return(decimal.NewFromInt(40), decimal.NewFromInt(40), nil).Once()
	suite.mockLedgerRepo.On("ComputeAccountBalanceAudits", ctx).Return(audits, nil).Once()
	suite.mockCustomerRepo.On("AuditWalletBalances", ctx).Return([]domain.WalletMismatch{}, nil).Once()

	report, err := suite.service.RunValidation(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(report.TrialBalance.Rows, 2)
	suite.True(report.TrialBalance.Rows[0].NegativeOnNormalSide)
	suite.True(report.TrialBalance.Rows[0].Balance.Equal(decimal.NewFromInt(-20)))
	suite.True(report.TrialBalance.Rows[1].NegativeOnNormalSide)
	suite.True(report.TrialBalance.DebitTotal.Equal(decimal.NewFromInt(-20)))
	suite.True(report.TrialBalance.CreditTotal.Equal(decimal.NewFromInt(-20)))
	suite.True(report.TrialBalance.Balanced)
}

func (suite *LedgerValidationServiceTestSuite) TestRunValidation_ReportsWalletMismatch() {
	ctx := context.Background()
	mismatch := domain.WalletMismatch{
		CustomerID:       uuid.NewString(),
		Name:             "Amina Yusuf",
		Cached:           decimal.NewFromInt(50),
		Computed:         decimal.NewFromInt(45),
		LastBalanceAfter: decimal.NewFromInt(45),
	}
	suite.mockLedgerRepo.On("FindUnbalancedTransactions", ctx).Return([]domain.TransactionImbalance{}, nil).Once()
	suite.mockLedgerRepo.On("SumEntryTotals", ctx).Return(decimal.NewFromInt(500), decimal.NewFromInt(500), nil).Once()
	suite.mockLedgerRepo.On("ComputeAccountBalanceAudits", ctx).Return(suite.audits, nil).Once()
	suite.mockCustomerRepo.On("AuditWalletBalances", ctx).Return([]domain.WalletMismatch{mismatch}, nil).Once()

	report, err := suite.service.RunValidation(ctx)

	suite.Require().NoError(err)
	suite.False(report.Healthy)
	suite.Require().Len(report.WalletMismatches, 1)
	suite.Equal(mismatch.CustomerID, report.WalletMismatches[0].CustomerID)
}

func (suite *LedgerValidationServiceTestSuite) TestRunValidation_RepoError() {
	ctx := context.Background()
	repoErr := assert.AnError
	suite.mockLedgerRepo.On("FindUnbalancedTransactions", ctx).Return(nil, repoErr).Once()

	report, err := suite.service.RunValidation(ctx)

	suite.Require().Error(err)
	suite.Nil(report)
	suite.Contains(err.Error(), repoErr.Error())
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SumEntryTotals", mock.Anything)
}

// --- Run Test Suite ---
func TestLedgerValidationService(t *testing.T) {
	suite.Run(t, new(LedgerValidationServiceTestSuite))
}
