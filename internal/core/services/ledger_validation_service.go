package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
)

// ledgerValidationService runs the offline consistency audit. It only reads;
// every finding lands in the report as data. A dirty ledger never turns into
// an error here, because the whole point is to see the damage.
type ledgerValidationService struct {
	BaseService
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	customerRepo portsrepo.CustomerRepositoryFacade
}

// NewLedgerValidationService creates the validation service.
func NewLedgerValidationService(ledgerRepo portsrepo.LedgerRepositoryFacade, customerRepo portsrepo.CustomerRepositoryFacade) portssvc.LedgerValidationSvc {
	return &ledgerValidationService{
		ledgerRepo:   ledgerRepo,
		customerRepo: customerRepo,
	}
}

// Ensure ledgerValidationService implements the portssvc.LedgerValidationSvc interface
var _ portssvc.LedgerValidationSvc = (*ledgerValidationService)(nil)

func (s *ledgerValidationService) RunValidation(ctx context.Context) (*domain.LedgerValidationReport, error) {
	report := &domain.LedgerValidationReport{
		RanAt:                  time.Now().UTC(),
		UnbalancedTransactions: []domain.TransactionImbalance{},
		BalanceMismatches:      []domain.BalanceMismatch{},
		WalletMismatches:       []domain.WalletMismatch{},
	}

	imbalances, err := s.ledgerRepo.FindUnbalancedTransactions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Validation failed checking per-transaction balance")
		return nil, fmt.Errorf("failed to check per-transaction balance: %w", err)
	}
	if imbalances != nil {
		report.UnbalancedTransactions = imbalances
	}

	debits, credits, err := s.ledgerRepo.SumEntryTotals(ctx)
	if err != nil {
		s.LogError(ctx, err, "Validation failed summing entry totals")
		return nil, fmt.Errorf("failed to sum entry totals: %w", err)
	}
	report.TotalDebits = debits
	report.TotalCredits = credits
	report.SystemBalanced = debits.Equal(credits)

	audits, err := s.ledgerRepo.ComputeAccountBalanceAudits(ctx)
	if err != nil {
		s.LogError(ctx, err, "Validation failed recomputing account balances")
		return nil, fmt.Errorf("failed to recompute account balances: %w", err)
	}
	for _, a := range audits {
		if !a.Cached.Equal(a.Computed) {
			report.BalanceMismatches = append(report.BalanceMismatches, domain.BalanceMismatch{
				AccountID:  a.AccountID,
				Code:       a.Code,
				Name:       a.Name,
				Cached:     a.Cached,
				Computed:   a.Computed,
				Difference: a.Cached.Sub(a.Computed),
			})
		}
	}
	report.TrialBalance = buildTrialBalance(audits)

	walletMismatches, err := s.customerRepo.AuditWalletBalances(ctx)
	if err != nil {
		s.LogError(ctx, err, "Validation failed auditing wallet balances")
		return nil, fmt.Errorf("failed to audit wallet balances: %w", err)
	}
	if walletMismatches != nil {
		report.WalletMismatches = walletMismatches
	}

	report.Healthy = len(report.UnbalancedTransactions) == 0 &&
		report.SystemBalanced &&
		report.TrialBalance.Balanced &&
		len(report.BalanceMismatches) == 0 &&
		len(report.WalletMismatches) == 0

	if report.Healthy {
		s.LogInfo(ctx, "Ledger validation passed",
			slog.Int("accounts_audited", len(audits)))
	} else {
		s.LogWarn(ctx, "Ledger validation found inconsistencies",
			slog.Int("unbalanced_transactions", len(report.UnbalancedTransactions)),
			slog.Bool("system_balanced", report.SystemBalanced),
			slog.Bool("trial_balance_balanced", report.TrialBalance.Balanced),
			slog.Int("balance_mismatches", len(report.BalanceMismatches)),
			slog.Int("wallet_mismatches", len(report.WalletMismatches)))
	}

	return report, nil
}

// buildTrialBalance places each account's recomputed balance on the side its
// account type declares. A negative balance stays on its declared side and
// is flagged instead of being flipped to the other column, so a sign defect
// stays visible rather than cancelling against healthy accounts.
func buildTrialBalance(audits []domain.AccountBalanceAudit) domain.TrialBalanceSummary {
	summary := domain.TrialBalanceSummary{
		Rows: make([]domain.TrialBalanceRow, 0, len(audits)),
	}
	debitTotal := decimal.Zero
	creditTotal := decimal.Zero

	for _, a := range audits {
		row := domain.TrialBalanceRow{
			AccountID:            a.AccountID,
			Code:                 a.Code,
			Name:                 a.Name,
			AccountTypeCode:      a.AccountTypeCode,
			NormalBalance:        a.NormalBalance,
			Balance:              a.Computed,
			NegativeOnNormalSide: a.Computed.IsNegative(),
		}
		switch a.NormalBalance {
		case domain.NormalDebit:
			debitTotal = debitTotal.Add(a.Computed)
		case domain.NormalCredit:
			creditTotal = creditTotal.Add(a.Computed)
		}
		summary.Rows = append(summary.Rows, row)
	}

	summary.DebitTotal = debitTotal
	summary.CreditTotal = creditTotal
	summary.Balanced = debitTotal.Equal(creditTotal)
	return summary
}
