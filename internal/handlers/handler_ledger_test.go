package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/handlers"
	"github.com/shopledger/shopledger_backend/internal/middleware"
	"github.com/shopledger/shopledger_backend/internal/utils"
)

// MockLedgerValidationService mocks the validation service for handler tests.
type MockLedgerValidationService struct {
	mock.Mock
}

var _ portssvc.LedgerValidationSvc = (*MockLedgerValidationService)(nil)

func (m *MockLedgerValidationService) RunValidation(ctx context.Context) (*domain.LedgerValidationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerValidationReport), args.Error(1)
}

// LedgerHandlerTestSuite exercises the transaction and validation routes
// through a real router with the real auth middleware, mocking only the
// service layer. MockLedgerService is shared with the account handler tests.
type LedgerHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	ledgerSvc     *MockLedgerService
	validationSvc *MockLedgerValidationService
	jwtSecret     string
}

func (s *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.ledgerSvc = new(MockLedgerService)
	s.validationSvc = new(MockLedgerValidationService)
	s.jwtSecret = "test-secret"

	s.router = gin.New()
	v1 := s.router.Group("/api/v1", middleware.AuthMiddleware(s.jwtSecret))
	handlers.RegisterLedgerRoutes(v1, s.ledgerSvc, s.validationSvc)
}

func (s *LedgerHandlerTestSuite) generateToken(userID string, role domain.UserRole) string {
	token, err := utils.GenerateJWT(userID, string(role), s.jwtSecret, time.Hour, "shopledger-test")
	s.Require().NoError(err)
	return token
}

func (s *LedgerHandlerTestSuite) performRequest(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *LedgerHandlerTestSuite) testTransaction() *domain.Transaction {
	now := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	return &domain.Transaction{
		TransactionID:   "txn-1",
		TransactionDate: now,
		Description:     "Manual adjustment",
		Status:          domain.Posted,
		BranchID:        "main",
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "mgr-1",
			LastUpdatedAt: now,
			LastUpdatedBy: "mgr-1",
		},
	}
}

func (s *LedgerHandlerTestSuite) postTransactionBody() []byte {
	body, err := json.Marshal(dto.PostTransactionRequest{
		TransactionDate: time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC),
		Description:     "Manual adjustment",
		Entries: []dto.EntryInputRequest{
			{AccountID: "acc-cash", EntryType: domain.Debit, Amount: decimal.RequireFromString("25.00")},
			{AccountID: "acc-revenue", EntryType: domain.Credit, Amount: decimal.RequireFromString("25.00")},
		},
	})
	s.Require().NoError(err)
	return body
}

func (s *LedgerHandlerTestSuite) TestPostTransactionAsManager() {
	txn := s.testTransaction()
	s.ledgerSvc.On("PostTransaction", mock.Anything, mock.MatchedBy(func(r dto.PostTransactionRequest) bool {
		return r.Description == "Manual adjustment" && len(r.Entries) == 2
	}), "mgr-1").Return(txn, nil)

	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions", token, s.postTransactionBody())

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("txn-1", resp.TransactionID)
	s.Equal(domain.Posted, resp.Status)
	s.Equal("mgr-1", resp.CreatedBy)
	s.ledgerSvc.AssertExpectations(s.T())
}

func (s *LedgerHandlerTestSuite) TestPostTransactionForbiddenForCashier() {
	token := s.generateToken("user-1", domain.RoleCashier)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions", token, s.postTransactionBody())

	s.Equal(http.StatusForbidden, w.Code)
	s.ledgerSvc.AssertNotCalled(s.T(), "PostTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerHandlerTestSuite) TestPostTransactionUnbalancedRejected() {
	postErr := fmt.Errorf("%w: entries do not balance: debits 25.00, credits 20.00", apperrors.ErrUnbalanced)
	s.ledgerSvc.On("PostTransaction", mock.Anything, mock.Anything, "mgr-1").Return(nil, postErr)

	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions", token, s.postTransactionBody())

	s.Equal(http.StatusBadRequest, w.Code)
	var resp handlers.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Contains(resp.Error, "do not balance")
}

func (s *LedgerHandlerTestSuite) TestPostTransactionUnknownAccount() {
	postErr := fmt.Errorf("account acc-missing: %w", apperrors.ErrNotFound)
	s.ledgerSvc.On("PostTransaction", mock.Anything, mock.Anything, "mgr-1").Return(nil, postErr)

	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions", token, s.postTransactionBody())

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *LedgerHandlerTestSuite) TestPostTransactionInvalidBody() {
	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions", token, []byte(`{"description":"No entries"}`))

	s.Equal(http.StatusBadRequest, w.Code)
	s.ledgerSvc.AssertNotCalled(s.T(), "PostTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerHandlerTestSuite) TestGetTransactionWithEntries() {
	txn := s.testTransaction()
	entries := []domain.JournalEntry{
		{
			EntryID:        "entry-1",
			TransactionID:  "txn-1",
			AccountID:      "acc-cash",
			EntryType:      domain.Debit,
			Amount:         decimal.RequireFromString("25.00"),
			EntryDate:      txn.TransactionDate,
			Reference:      &domain.Reference{Kind: domain.RefExpense, ID: "exp-1"},
			RunningBalance: decimal.RequireFromString("125.00"),
		},
		{
			EntryID:        "entry-2",
			TransactionID:  "txn-1",
			AccountID:      "acc-revenue",
			EntryType:      domain.Credit,
			Amount:         decimal.RequireFromString("25.00"),
			EntryDate:      txn.TransactionDate,
			RunningBalance: decimal.RequireFromString("900.00"),
		},
	}
	s.ledgerSvc.On("GetTransactionByID", mock.Anything, "txn-1").Return(txn, entries, nil)

	token := s.generateToken("user-1", domain.RoleCashier)
	w := s.performRequest(http.MethodGet, "/api/v1/transactions/txn-1", token, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.GetTransactionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("txn-1", resp.Transaction.TransactionID)
	s.Require().Len(resp.Entries, 2)
	s.Require().NotNil(resp.Entries[0].Reference)
	s.Equal(domain.RefExpense, resp.Entries[0].Reference.Kind)
	s.Equal("exp-1", resp.Entries[0].Reference.ID)
	s.Nil(resp.Entries[1].Reference)
}

func (s *LedgerHandlerTestSuite) TestGetTransactionNotFound() {
	s.ledgerSvc.On("GetTransactionByID", mock.Anything, "missing").Return(nil, nil, apperrors.ErrNotFound)

	token := s.generateToken("user-1", domain.RoleCashier)
	w := s.performRequest(http.MethodGet, "/api/v1/transactions/missing", token, nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *LedgerHandlerTestSuite) TestListTransactionsDefaults() {
	page := &dto.ListTransactionsResponse{
		Transactions: []dto.TransactionResponse{dto.ToTransactionResponse(s.testTransaction())},
	}
	s.ledgerSvc.On("ListTransactions", mock.Anything, dto.ListTransactionsParams{
		Limit:            20,
		IncludeReversals: true,
	}).Return(page, nil)

	token := s.generateToken("user-1", domain.RoleCashier)
	w := s.performRequest(http.MethodGet, "/api/v1/transactions", token, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListTransactionsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Transactions, 1)
	s.Nil(resp.NextToken)
	s.ledgerSvc.AssertExpectations(s.T())
}

func (s *LedgerHandlerTestSuite) TestListTransactionsUnauthenticated() {
	w := s.performRequest(http.MethodGet, "/api/v1/transactions", "", nil)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.ledgerSvc.AssertNotCalled(s.T(), "ListTransactions", mock.Anything, mock.Anything)
}

func (s *LedgerHandlerTestSuite) TestReverseTransactionAsManager() {
	reversal := s.testTransaction()
	reversal.TransactionID = "txn-2"
	reversal.Description = "Reversal of txn-1"
	reversal.OriginalTransactionID = "txn-1"
	s.ledgerSvc.On("ReverseTransaction", mock.Anything, "txn-1", "mgr-1").Return(reversal, nil)

	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions/txn-1/reverse", token, nil)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("txn-2", resp.TransactionID)
	s.Equal("txn-1", resp.OriginalTransactionID)
	s.ledgerSvc.AssertExpectations(s.T())
}

func (s *LedgerHandlerTestSuite) TestReverseTransactionAlreadyReversed() {
	reverseErr := fmt.Errorf("transaction txn-1 already reversed: %w", apperrors.ErrAlreadyCompleted)
	s.ledgerSvc.On("ReverseTransaction", mock.Anything, "txn-1", "mgr-1").Return(nil, reverseErr)

	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions/txn-1/reverse", token, nil)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *LedgerHandlerTestSuite) TestReverseTransactionForbiddenForCashier() {
	token := s.generateToken("user-1", domain.RoleCashier)
	w := s.performRequest(http.MethodPost, "/api/v1/transactions/txn-1/reverse", token, nil)

	s.Equal(http.StatusForbidden, w.Code)
	s.ledgerSvc.AssertNotCalled(s.T(), "ReverseTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerHandlerTestSuite) TestRunValidationAsManager() {
	report := &domain.LedgerValidationReport{
		RanAt:          time.Date(2025, 8, 12, 11, 0, 0, 0, time.UTC),
		TotalDebits:    decimal.RequireFromString("500.00"),
		TotalCredits:   decimal.RequireFromString("500.00"),
		SystemBalanced: true,
		TrialBalance: domain.TrialBalanceSummary{
			DebitTotal:  decimal.RequireFromString("180.00"),
			CreditTotal: decimal.RequireFromString("180.00"),
			Balanced:    true,
		},
		Healthy: true,
	}
	s.validationSvc.On("RunValidation", mock.Anything).Return(report, nil)

	token := s.generateToken("mgr-1", domain.RoleManager)
	w := s.performRequest(http.MethodGet, "/api/v1/ledger/validation", token, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp domain.LedgerValidationReport
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Healthy)
	s.True(resp.SystemBalanced)
	s.True(resp.TotalDebits.Equal(decimal.RequireFromString("500.00")))
	s.validationSvc.AssertExpectations(s.T())
}

func (s *LedgerHandlerTestSuite) TestRunValidationForbiddenForCashier() {
	token := s.generateToken("user-1", domain.RoleCashier)
	w := s.performRequest(http.MethodGet, "/api/v1/ledger/validation", token, nil)

	s.Equal(http.StatusForbidden, w.Code)
	s.validationSvc.AssertNotCalled(s.T(), "RunValidation", mock.Anything)
}

func TestLedgerHandler(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
