package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
)

// customerService implements customer CRUD plus the wallet gateway. Every
// wallet movement in the system, manual or sale-driven, is applied through
// the repository's single ApplyWalletTransaction primitive so balance_after
// can never drift from the cached balance.
type customerService struct {
	BaseService
	customerRepo portsrepo.CustomerRepositoryFacade
}

// NewCustomerService creates a new customer service.
func NewCustomerService(customerRepo portsrepo.CustomerRepositoryFacade) portssvc.CustomerSvcFacade {
	return &customerService{customerRepo: customerRepo}
}

// Ensure customerService implements the portssvc.CustomerSvcFacade interface
var _ portssvc.CustomerSvcFacade = (*customerService)(nil)

func (s *customerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, userID string) (*domain.Customer, error) {
	now := time.Now()
	customer := domain.Customer{
		CustomerID: uuid.NewString(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		IsActive:   true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.customerRepo.SaveCustomer(ctx, customer); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("customer with phone %s already exists: %w", req.Phone, err)
		}
		s.LogError(ctx, err, "Failed to save customer",
			slog.String("customer_id", customer.CustomerID))
		return nil, err
	}

	s.LogInfo(ctx, "Customer created successfully",
		slog.String("customer_id", customer.CustomerID))
	return &customer, nil
}

func (s *customerService) GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find customer by ID",
				slog.String("customer_id", customerID))
		}
		return nil, err
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, limit int, offset int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	customers, err := s.customerRepo.ListCustomers(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list customers")
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	if customers == nil {
		return []domain.Customer{}, nil
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID string, req dto.UpdateCustomerRequest, userID string) (*domain.Customer, error) {
	customer, err := s.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		customer.Name = *req.Name
		updated = true
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
		updated = true
	}
	if req.Email != nil {
		customer.Email = *req.Email
		updated = true
	}
	if req.Address != nil {
		customer.Address = *req.Address
		updated = true
	}
	if !updated {
		return customer, nil
	}

	customer.MarkUpdated(userID, time.Now())

	if err := s.customerRepo.UpdateCustomer(ctx, *customer); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("another customer already uses phone %s: %w", customer.Phone, err)
		}
		s.LogError(ctx, err, "Failed to update customer",
			slog.String("customer_id", customerID))
		return nil, err
	}

	s.LogInfo(ctx, "Customer updated successfully",
		slog.String("customer_id", customerID))
	return customer, nil
}

func (s *customerService) DeactivateCustomer(ctx context.Context, customerID string, userID string) error {
	customer, err := s.GetCustomerByID(ctx, customerID)
	if err != nil {
		return err
	}

	if customer.WalletBalance.IsPositive() {
		s.LogWarn(ctx, "Deactivating customer with remaining wallet balance",
			slog.String("customer_id", customerID),
			slog.String("wallet_balance", customer.WalletBalance.String()))
	}

	if err := s.customerRepo.DeactivateCustomer(ctx, customerID, userID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate customer",
			slog.String("customer_id", customerID))
		return err
	}

	s.LogInfo(ctx, "Customer deactivated successfully",
		slog.String("customer_id", customerID))
	return nil
}

// ApplyWalletTransaction applies one manual wallet movement. The repository
// primitive does the lock, funds check, balance update and log append in a
// single database transaction; an insufficient-funds debit leaves no trace.
func (s *customerService) ApplyWalletTransaction(ctx context.Context, customerID string, req dto.ApplyWalletTransactionRequest, userID string) (*domain.CustomerWalletTransaction, error) {
	customer, err := s.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, fmt.Errorf("%w: customer %s is inactive", apperrors.ErrValidation, customerID)
	}

	if err := accounting.ValidateAmountPrecision(req.Amount); err != nil {
		return nil, err
	}

	walletTxnID := uuid.NewString()
	ref, err := domain.NewReference(domain.RefWallet, walletTxnID)
	if err != nil {
		return nil, err
	}

	txn := domain.CustomerWalletTransaction{
		WalletTxnID:     walletTxnID,
		CustomerID:      customerID,
		TransactionType: req.TransactionType,
		Amount:          req.Amount,
		Reason:          req.Reason,
		Reference:       ref,
		CreatedAt:       time.Now(),
		CreatedBy:       userID,
		// BalanceAfter is stamped by the repository under the row lock
	}

	applied, err := s.customerRepo.ApplyWalletTransaction(ctx, txn)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to apply wallet transaction",
			slog.String("customer_id", customerID),
			slog.String("wallet_txn_id", walletTxnID))
		return nil, fmt.Errorf("failed to apply wallet transaction: %w", err)
	}

	s.LogInfo(ctx, "Wallet transaction applied",
		slog.String("customer_id", customerID),
		slog.String("wallet_txn_id", applied.WalletTxnID),
		slog.String("type", string(applied.TransactionType)),
		slog.String("balance_after", applied.BalanceAfter.String()))
	return applied, nil
}

func (s *customerService) ListWalletTransactions(ctx context.Context, customerID string, params dto.ListWalletTransactionsParams) (*dto.ListWalletTransactionsResponse, error) {
	// Resolve the customer first so a bad ID surfaces as NotFound rather
	// than an empty page.
	if _, err := s.GetCustomerByID(ctx, customerID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	txns, nextToken, err := s.customerRepo.ListWalletTransactions(ctx, customerID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list wallet transactions",
			slog.String("customer_id", customerID))
		return nil, fmt.Errorf("failed to retrieve wallet transactions: %w", err)
	}

	responses := make([]dto.WalletTransactionResponse, len(txns))
	for i, txn := range txns {
		responses[i] = dto.ToWalletTransactionResponse(&txn)
	}

	return &dto.ListWalletTransactionsResponse{
		Transactions: responses,
		NextToken:    nextToken,
	}, nil
}
