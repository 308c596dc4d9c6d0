package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
)

// saleService implements the SaleSvcFacade interface.
type saleService struct {
	BaseService
	saleRepo       portsrepo.SaleRepositoryFacade
	customerSvc    portssvc.CustomerSvcFacade
	productSvc     portssvc.ProductSvcFacade
	bankAccountSvc portssvc.BankAccountSvcFacade
	accountSvc     portssvc.AccountSvcFacade
	poster         portssvc.LedgerPoster
	branchID       string
}

// NewSaleService creates a new sale service instance.
func NewSaleService(
	saleRepo portsrepo.SaleRepositoryFacade,
	customerSvc portssvc.CustomerSvcFacade,
	productSvc portssvc.ProductSvcFacade,
	bankAccountSvc portssvc.BankAccountSvcFacade,
	accountSvc portssvc.AccountSvcFacade,
	poster portssvc.LedgerPoster,
	branchID string,
) portssvc.SaleSvcFacade {
	return &saleService{
		saleRepo:       saleRepo,
		customerSvc:    customerSvc,
		productSvc:     productSvc,
		bankAccountSvc: bankAccountSvc,
		accountSvc:     accountSvc,
		poster:         poster,
		branchID:       branchID,
	}
}

var _ portssvc.SaleSvcFacade = (*saleService)(nil)

// GetSaleByID retrieves a sale along with its items and payments.
func (s *saleService) GetSaleByID(ctx context.Context, saleID string) (*dto.SaleDetailResponse, error) {
	sale, items, payments, err := s.saleRepo.FindSaleByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sale %s: %w", saleID, err)
	}
	detail := dto.ToSaleDetailResponse(sale, items, payments)
	return &detail, nil
}

// ListSales retrieves a paginated list of sales.
func (s *saleService) ListSales(ctx context.Context, params dto.ListSalesParams) (*dto.ListSalesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := portsrepo.SaleListFilter{
		CustomerID: params.CustomerID,
		From:       params.From,
		To:         params.To,
	}
	if params.PaymentStatus != nil {
		status := domain.PaymentStatus(*params.PaymentStatus)
		filter.PaymentStatus = &status
	}

	sales, nextToken, err := s.saleRepo.ListSales(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list sales")
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, dto.ToSaleResponse(&sales[i]))
	}
	return &dto.ListSalesResponse{Sales: items, NextToken: nextToken}, nil
}

// CreateSale records a sale atomically and then attempts its ledger posting.
// Stock decrements, wallet movements and the sale rows commit together or
// not at all; the posting runs after the commit with degraded-success
// semantics, so a posting failure leaves the sale standing.
func (s *saleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest, userID string) (*dto.SaleDetailResponse, domain.PostingResult, error) {
	if len(req.Items) == 0 {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: a sale needs at least one item", apperrors.ErrValidation)
	}
	if req.CustomerID != nil {
		customer, err := s.customerSvc.GetCustomerByID(ctx, *req.CustomerID)
		if err != nil {
			return nil, domain.PostingResult{}, fmt.Errorf("customer %s: %w", *req.CustomerID, err)
		}
		if !customer.IsActive {
			return nil, domain.PostingResult{}, fmt.Errorf("%w: customer %s is inactive", apperrors.ErrValidation, customer.CustomerID)
		}
	}

	saleID := uuid.NewString()
	now := time.Now().UTC()

	items, subtotal, err := s.priceItems(ctx, saleID, req.Items)
	if err != nil {
		return nil, domain.PostingResult{}, err
	}

	discount := req.Discount
	if discount.IsNegative() {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: discount must not be negative", apperrors.ErrInvalidAmount)
	}
	if discount.Exponent() < -2 {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: discount %s has more than two decimal places", apperrors.ErrInvalidAmount, discount)
	}
	if discount.GreaterThan(subtotal) {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: discount %s exceeds the subtotal %s", apperrors.ErrValidation, discount, subtotal)
	}
	total := subtotal.Sub(discount)
	if !total.IsPositive() {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: sale total must be positive", apperrors.ErrValidation)
	}

	payments := make([]domain.SalePayment, 0, len(req.Payments))
	paidTotal := decimal.Zero
	for _, leg := range req.Payments {
		if err := accounting.ValidateAmountPrecision(leg.Amount); err != nil {
			return nil, domain.PostingResult{}, err
		}
		if err := s.checkPaymentLeg(ctx, leg.Method, leg.BankAccountID, req.CustomerID); err != nil {
			return nil, domain.PostingResult{}, err
		}
		payments = append(payments, domain.SalePayment{
			PaymentID:     uuid.NewString(),
			SaleID:        saleID,
			Method:        leg.Method,
			Amount:        leg.Amount,
			BankAccountID: leg.BankAccountID,
			CreatedAt:     now,
			CreatedBy:     userID,
		})
		paidTotal = paidTotal.Add(leg.Amount)
	}

	overpay := decimal.Zero
	outstanding := decimal.Zero
	switch {
	case paidTotal.GreaterThan(total):
		if !req.StoreCreditOverpay {
			return nil, domain.PostingResult{}, fmt.Errorf("%w: payments %s exceed the total %s; set storeCreditOverpay to credit the excess to the customer wallet", apperrors.ErrValidation, paidTotal, total)
		}
		if req.CustomerID == nil {
			return nil, domain.PostingResult{}, fmt.Errorf("%w: overpayment needs a registered customer", apperrors.ErrValidation)
		}
		overpay = paidTotal.Sub(total)
	case paidTotal.LessThan(total):
		if req.CustomerID == nil {
			return nil, domain.PostingResult{}, fmt.Errorf("%w: walk-in sales must be paid in full", apperrors.ErrValidation)
		}
		outstanding = total.Sub(paidTotal)
	}

	paidOnSale := paidTotal
	if paidOnSale.GreaterThan(total) {
		paidOnSale = total
	}

	sale := domain.Sale{
		SaleID:        saleID,
		InvoiceNo:     invoiceNumber(req.SaleDate, saleID),
		CustomerID:    req.CustomerID,
		SaleDate:      req.SaleDate,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		PaidAmount:    paidOnSale,
		PaymentStatus: domain.DerivePaymentStatus(paidOnSale, total),
		Notes:         req.Notes,
		BranchID:      s.branchID,
	}
	sale.Touch(userID, now)

	// BalanceAfter on each wallet row is stamped by the repository under
	// the customer's row lock.
	ref := domain.Reference{Kind: domain.RefSale, ID: saleID}
	walletTxns := make([]domain.CustomerWalletTransaction, 0, 2)
	for _, p := range payments {
		if p.Method != domain.PayWallet {
			continue
		}
		walletTxns = append(walletTxns, domain.CustomerWalletTransaction{
			WalletTxnID:     uuid.NewString(),
			CustomerID:      *req.CustomerID,
			TransactionType: domain.WalletDebit,
			Amount:          p.Amount,
			Reason:          fmt.Sprintf("Payment for sale %s", sale.InvoiceNo),
			Reference:       &ref,
			CreatedAt:       now,
			CreatedBy:       userID,
		})
	}
	if overpay.IsPositive() {
		walletTxns = append(walletTxns, domain.CustomerWalletTransaction{
			WalletTxnID:     uuid.NewString(),
			CustomerID:      *req.CustomerID,
			TransactionType: domain.WalletCredit,
			Amount:          overpay,
			Reason:          fmt.Sprintf("Store credit from sale %s", sale.InvoiceNo),
			Reference:       &ref,
			CreatedAt:       now,
			CreatedBy:       userID,
		})
	}

	if err := s.saleRepo.SaveSale(ctx, sale, items, payments, walletTxns); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientStock) || errors.Is(err, apperrors.ErrInsufficientFunds) {
			return nil, domain.PostingResult{}, err
		}
		s.LogError(ctx, err, "Failed to save sale", "sale_id", saleID)
		return nil, domain.PostingResult{}, fmt.Errorf("failed to save sale: %w", err)
	}

	s.LogInfo(ctx, "Sale recorded",
		"sale_id", saleID, "invoice_no", sale.InvoiceNo,
		"total", total.String(), "payment_status", string(sale.PaymentStatus))

	result := s.postSale(ctx, &sale, payments, outstanding, overpay, userID)
	if result.Posted {
		if err := s.saleRepo.SetLedgerTransactionID(ctx, saleID, result.TransactionID); err != nil {
			// The posting exists; only the back-link is missing. Leave it
			// to reconciliation rather than failing the sale.
			s.LogError(ctx, err, "Failed to link ledger transaction to sale",
				"sale_id", saleID, "transaction_id", result.TransactionID)
		}
		sale.LedgerTransactionID = &result.TransactionID
	} else {
		s.LogWarn(ctx, "Sale recorded without ledger posting",
			"sale_id", saleID, "reason", result.FailureReason)
	}

	detail := dto.ToSaleDetailResponse(&sale, items, payments)
	return &detail, result, nil
}

// AddSalePayment records a follow-up payment against a sale's outstanding
// amount and posts the settlement against receivables.
func (s *saleService) AddSalePayment(ctx context.Context, saleID string, req dto.AddSalePaymentRequest, userID string) (*domain.Sale, domain.PostingResult, error) {
	sale, _, _, err := s.saleRepo.FindSaleByID(ctx, saleID)
	if err != nil {
		return nil, domain.PostingResult{}, fmt.Errorf("failed to find sale %s: %w", saleID, err)
	}
	if sale.PaymentStatus == domain.PaymentPaid {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: sale %s is already fully paid", apperrors.ErrAlreadyCompleted, saleID)
	}
	if err := accounting.ValidateAmountPrecision(req.Amount); err != nil {
		return nil, domain.PostingResult{}, err
	}
	if outstanding := sale.Total.Sub(sale.PaidAmount); req.Amount.GreaterThan(outstanding) {
		return nil, domain.PostingResult{}, fmt.Errorf("%w: payment %s exceeds the outstanding amount %s", apperrors.ErrInvalidAmount, req.Amount, outstanding)
	}
	if err := s.checkPaymentLeg(ctx, req.Method, req.BankAccountID, sale.CustomerID); err != nil {
		return nil, domain.PostingResult{}, err
	}

	now := time.Now().UTC()
	payment := domain.SalePayment{
		PaymentID:     uuid.NewString(),
		SaleID:        saleID,
		Method:        req.Method,
		Amount:        req.Amount,
		BankAccountID: req.BankAccountID,
		CreatedAt:     now,
		CreatedBy:     userID,
	}

	ref := domain.Reference{Kind: domain.RefSale, ID: saleID}
	var walletTxn *domain.CustomerWalletTransaction
	if req.Method == domain.PayWallet {
		walletTxn = &domain.CustomerWalletTransaction{
			WalletTxnID:     uuid.NewString(),
			CustomerID:      *sale.CustomerID,
			TransactionType: domain.WalletDebit,
			Amount:          req.Amount,
			Reason:          fmt.Sprintf("Payment for sale %s", sale.InvoiceNo),
			Reference:       &ref,
			CreatedAt:       now,
			CreatedBy:       userID,
		}
	}

	updated, err := s.saleRepo.AddSalePayment(ctx, saleID, payment, walletTxn)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) ||
			errors.Is(err, apperrors.ErrInvalidAmount) ||
			errors.Is(err, apperrors.ErrAlreadyCompleted) {
			return nil, domain.PostingResult{}, err
		}
		s.LogError(ctx, err, "Failed to add sale payment", "sale_id", saleID)
		return nil, domain.PostingResult{}, fmt.Errorf("failed to add sale payment: %w", err)
	}

	s.LogInfo(ctx, "Sale payment recorded",
		"sale_id", saleID, "amount", req.Amount.String(),
		"payment_status", string(updated.PaymentStatus))

	result := s.postSettlement(ctx, updated, payment, userID)
	if !result.Posted {
		s.LogWarn(ctx, "Sale payment recorded without ledger posting",
			"sale_id", saleID, "reason", result.FailureReason)
	}
	return updated, result, nil
}

// priceItems resolves products, applies price overrides and computes line
// totals rounded to two decimal places.
func (s *saleService) priceItems(ctx context.Context, saleID string, lines []dto.SaleItemRequest) ([]domain.SaleItem, decimal.Decimal, error) {
	productIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.productSvc.GetProductsByIDs(ctx, uniqueStrings(productIDs))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to resolve products: %w", err)
	}

	items := make([]domain.SaleItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s does not exist", apperrors.ErrValidation, line.ProductID)
		}
		if !product.IsActive {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s is inactive", apperrors.ErrValidation, product.ProductID)
		}
		if !line.Quantity.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity for product %s must be positive", apperrors.ErrValidation, product.ProductID)
		}

		unitPrice := product.SellingPrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		if unitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: unit price for product %s must not be negative", apperrors.ErrInvalidAmount, product.ProductID)
		}
		if unitPrice.Exponent() < -2 {
			return nil, decimal.Zero, fmt.Errorf("%w: unit price %s has more than two decimal places", apperrors.ErrInvalidAmount, unitPrice)
		}

		lineTotal := line.Quantity.Mul(unitPrice).Round(2)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, domain.SaleItem{
			SaleItemID: uuid.NewString(),
			SaleID:     saleID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
			LineTotal:  lineTotal,
		})
	}
	return items, subtotal, nil
}

// checkPaymentLeg validates one payment leg against its method's
// requirements. customerID is the sale's customer, nil for walk-ins.
func (s *saleService) checkPaymentLeg(ctx context.Context, method domain.PaymentMethod, bankAccountID *string, customerID *string) error {
	switch method {
	case domain.PayCash:
		return nil
	case domain.PayBank:
		if bankAccountID == nil {
			return fmt.Errorf("%w: bank payments need a bank account", apperrors.ErrValidation)
		}
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, *bankAccountID)
		if err != nil {
			return fmt.Errorf("bank account %s: %w", *bankAccountID, err)
		}
		if !bankAccount.IsActive {
			return fmt.Errorf("%w: bank account %s is inactive", apperrors.ErrValidation, bankAccount.BankAccountID)
		}
		return nil
	case domain.PayWallet:
		if customerID == nil {
			return fmt.Errorf("%w: wallet payments need a registered customer", apperrors.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, method)
	}
}

// postSale builds the composite double entry for a recorded sale: one debit
// per money source plus receivables for the outstanding part, against sales
// revenue and any wallet credit for an overpayment.
func (s *saleService) postSale(ctx context.Context, sale *domain.Sale, payments []domain.SalePayment, outstanding, overpay decimal.Decimal, userID string) domain.PostingResult {
	cashTotal := decimal.Zero
	walletTotal := decimal.Zero
	bankTotals := make(map[string]decimal.Decimal)
	for _, p := range payments {
		switch p.Method {
		case domain.PayCash:
			cashTotal = cashTotal.Add(p.Amount)
		case domain.PayWallet:
			walletTotal = walletTotal.Add(p.Amount)
		case domain.PayBank:
			bankTotals[*p.BankAccountID] = bankTotals[*p.BankAccountID].Add(p.Amount)
		}
	}

	entries := make([]domain.EntryInput, 0, len(bankTotals)+5)
	if cashTotal.IsPositive() {
		accountID, err := s.defaultAccountID(ctx, domain.RoleCash)
		if err != nil {
			return domain.PostingResult{FailureReason: fmt.Sprintf("resolve cash account: %v", err)}
		}
		entries = append(entries, domain.EntryInput{AccountID: accountID, EntryType: domain.Debit, Amount: cashTotal})
	}

	bankIDs := make([]string, 0, len(bankTotals))
	for id := range bankTotals {
		bankIDs = append(bankIDs, id)
	}
	sort.Strings(bankIDs)
	for _, bankAccountID := range bankIDs {
		bankAccount, err := s.bankAccountSvc.GetBankAccountByID(ctx, bankAccountID)
		if err != nil {
			return domain.PostingResult{FailureReason: fmt.Sprintf("resolve bank account %s: %v", bankAccountID, err)}
		}
		entries = append(entries, domain.EntryInput{AccountID: bankAccount.LedgerAccountID, EntryType: domain.Debit, Amount: bankTotals[bankAccountID]})
	}

	if walletTotal.IsPositive() {
		accountID, err := s.defaultAccountID(ctx, domain.RoleWalletLiability)
		if err != nil {
			return domain.PostingResult{FailureReason: fmt.Sprintf("resolve wallet liability account: %v", err)}
		}
		entries = append(entries, domain.EntryInput{AccountID: accountID, EntryType: domain.Debit, Amount: walletTotal})
	}
	if outstanding.IsPositive() {
		accountID, err := s.defaultAccountID(ctx, domain.RoleAccountsReceivable)
		if err != nil {
			return domain.PostingResult{FailureReason: fmt.Sprintf("resolve receivables account: %v", err)}
		}
		entries = append(entries, domain.EntryInput{AccountID: accountID, EntryType: domain.Debit, Amount: outstanding})
	}

	revenueAccountID, err := s.defaultAccountID(ctx, domain.RoleSalesRevenue)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve revenue account: %v", err)}
	}
	entries = append(entries, domain.EntryInput{AccountID: revenueAccountID, EntryType: domain.Credit, Amount: sale.Total})

	if overpay.IsPositive() {
		accountID, err := s.defaultAccountID(ctx, domain.RoleWalletLiability)
		if err != nil {
			return domain.PostingResult{FailureReason: fmt.Sprintf("resolve wallet liability account: %v", err)}
		}
		entries = append(entries, domain.EntryInput{AccountID: accountID, EntryType: domain.Credit, Amount: overpay})
	}

	ref := domain.Reference{Kind: domain.RefSale, ID: sale.SaleID}
	return s.poster.PostForReference(ctx, ref, sale.SaleDate, fmt.Sprintf("Sale %s", sale.InvoiceNo), entries, sale.BranchID, userID)
}

// postSettlement posts a follow-up payment: money in, receivable out.
func (s *saleService) postSettlement(ctx context.Context, sale *domain.Sale, payment domain.SalePayment, userID string) domain.PostingResult {
	var debitAccountID string
	var err error
	switch payment.Method {
	case domain.PayCash:
		debitAccountID, err = s.defaultAccountID(ctx, domain.RoleCash)
	case domain.PayBank:
		var bankAccount *domain.BankAccount
		bankAccount, err = s.bankAccountSvc.GetBankAccountByID(ctx, *payment.BankAccountID)
		if err == nil {
			debitAccountID = bankAccount.LedgerAccountID
		}
	case domain.PayWallet:
		debitAccountID, err = s.defaultAccountID(ctx, domain.RoleWalletLiability)
	}
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve payment account: %v", err)}
	}

	arAccountID, err := s.defaultAccountID(ctx, domain.RoleAccountsReceivable)
	if err != nil {
		return domain.PostingResult{FailureReason: fmt.Sprintf("resolve receivables account: %v", err)}
	}

	ref := domain.Reference{Kind: domain.RefSale, ID: sale.SaleID}
	entries := []domain.EntryInput{
		{AccountID: debitAccountID, EntryType: domain.Debit, Amount: payment.Amount},
		{AccountID: arAccountID, EntryType: domain.Credit, Amount: payment.Amount},
	}
	return s.poster.PostForReference(ctx, ref, payment.CreatedAt, fmt.Sprintf("Payment for sale %s", sale.InvoiceNo), entries, sale.BranchID, userID)
}

// defaultAccountID resolves a chart default to its account ID.
func (s *saleService) defaultAccountID(ctx context.Context, role domain.AccountRole) (string, error) {
	account, err := s.accountSvc.ResolveDefaultAccount(ctx, role)
	if err != nil {
		return "", err
	}
	return account.AccountID, nil
}

// invoiceNumber derives a human-readable invoice number from the sale date
// and the sale's ID. Uniqueness is enforced by the database.
func invoiceNumber(date time.Time, saleID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(saleID, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("INV-%s-%s", date.Format("20060102"), suffix)
}
