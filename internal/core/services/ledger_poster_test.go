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

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/core/services"
)

// --- Test Suite Setup ---
type LedgerPosterTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	mockAccountSvc *MockAccountService
	poster         portssvc.LedgerPoster
	assetAccount   domain.Account
	revenueAccount domain.Account
	accountTypes   []domain.AccountType
	branchID       string
	userID         string
}

func (suite *LedgerPosterTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.poster = services.NewLedgerPoster(suite.mockLedgerRepo, suite.mockAccountSvc)

	suite.branchID = "main"
	suite.userID = uuid.NewString()
	suite.assetAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "1000",
		Name:            "Cash in Drawer",
		AccountTypeCode: domain.Asset,
		IsActive:        true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:       uuid.NewString(),
		Code:            "4000",
		Name:            "Sales Revenue",
		AccountTypeCode: domain.Revenue,
		IsActive:        true,
	}
	suite.accountTypes = []domain.AccountType{
		{Code: domain.Asset, Name: "Asset", NormalBalance: domain.NormalDebit},
		{Code: domain.Revenue, Name: "Revenue", NormalBalance: domain.NormalCredit},
	}
}

// --- Test Cases ---

func (suite *LedgerPosterTestSuite) TestPostForReference_Success() {
	ctx := context.Background()
	ref := domain.Reference{Kind: domain.RefSale, ID: uuid.NewString()}
	date := time.Now().Add(-time.Hour)
	entries := []domain.EntryInput{
		{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(40)},
		{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(40)},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{suite.assetAccount.AccountID, suite.revenueAccount.AccountID}).
		Return(map[string]domain.Account{
			suite.assetAccount.AccountID:   suite.assetAccount,
			suite.revenueAccount.AccountID: suite.revenueAccount,
		}, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()

	var savedTxn domain.Transaction
	var savedEntries []domain.JournalEntry
	suite.mockLedgerRepo.On("SaveTransaction", ctx,
		mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("[]domain.JournalEntry"),
		mock.AnythingOfType("map[string]decimal.Decimal")).
		Run(func(args mock.Arguments) {
			savedTxn = args.Get(1).(domain.Transaction)
			savedEntries = args.Get(2).([]domain.JournalEntry)
		}).
		Return(nil).Once()

	result := suite.poster.PostForReference(ctx, ref, date, "Sale INV-1", entries, suite.branchID, suite.userID)

	suite.True(result.Posted)
	suite.Equal(savedTxn.TransactionID, result.TransactionID)
	suite.Empty(result.FailureReason)
	suite.Equal(suite.branchID, savedTxn.BranchID)

	// The caller's reference rides on every entry, not a MANUAL fallback.
	suite.Require().Len(savedEntries, 2)
	for _, entry := range savedEntries {
		suite.Require().NotNil(entry.Reference)
		suite.Equal(ref, *entry.Reference)
	}
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerPosterTestSuite) TestPostForReference_UnbalancedEntries() {
	ctx := context.Background()
	ref := domain.Reference{Kind: domain.RefExpense, ID: uuid.NewString()}
	entries := []domain.EntryInput{
		{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(40)},
		{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(30)},
	}

	result := suite.poster.PostForReference(ctx, ref, time.Now(), "Broken entry", entries, suite.branchID, suite.userID)

	suite.False(result.Posted)
	suite.Empty(result.TransactionID)
	suite.Contains(result.FailureReason, "do not balance")
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerPosterTestSuite) TestPostForReference_InactiveAccount() {
	ctx := context.Background()
	inactive := suite.assetAccount
	inactive.IsActive = false
	ref := domain.Reference{Kind: domain.RefTransfer, ID: uuid.NewString()}
	entries := []domain.EntryInput{
		{AccountID: inactive.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(40)},
		{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(40)},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{inactive.AccountID, suite.revenueAccount.AccountID}).
		Return(map[string]domain.Account{
			inactive.AccountID:             inactive,
			suite.revenueAccount.AccountID: suite.revenueAccount,
		}, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()

	result := suite.poster.PostForReference(ctx, ref, time.Now(), "Transfer posting", entries, suite.branchID, suite.userID)

	suite.False(result.Posted)
	suite.Contains(result.FailureReason, "inactive")
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerPosterTestSuite) TestPostForReference_SaveFails() {
	ctx := context.Background()
	repoErr := assert.AnError
	ref := domain.Reference{Kind: domain.RefIncome, ID: uuid.NewString()}
	entries := []domain.EntryInput{
		{AccountID: suite.assetAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(40)},
		{AccountID: suite.revenueAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(40)},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).
		Return(map[string]domain.Account{
			suite.assetAccount.AccountID:   suite.assetAccount,
			suite.revenueAccount.AccountID: suite.revenueAccount,
		}, nil).Once()
	suite.mockAccountSvc.On("ListAccountTypes", ctx).Return(suite.accountTypes, nil).Once()
	suite.mockLedgerRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(repoErr).Once()

	result := suite.poster.PostForReference(ctx, ref, time.Now(), "Income posting", entries, suite.branchID, suite.userID)

	suite.False(result.Posted)
	suite.Contains(result.FailureReason, repoErr.Error())
}

// --- Run Test Suite ---
func TestLedgerPoster(t *testing.T) {
	suite.Run(t, new(LedgerPosterTestSuite))
}
