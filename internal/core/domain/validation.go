package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionImbalance flags a transaction whose entries do not sum to the
// same debit and credit totals. Should never occur; reported, never raised.
type TransactionImbalance struct {
	TransactionID string          `json:"transactionID"`
	DebitTotal    decimal.Decimal `json:"debitTotal"`
	CreditTotal   decimal.Decimal `json:"creditTotal"`
	Difference    decimal.Decimal `json:"difference"` // DebitTotal - CreditTotal
}

// AccountBalanceAudit is one account's cached balance next to the balance
// recomputed from its entries, plus what the trial balance needs to place it.
type AccountBalanceAudit struct {
	AccountID       string          `json:"accountID"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	AccountTypeCode AccountTypeCode `json:"accountType"`
	NormalBalance   NormalBalance   `json:"normalBalance"`
	Cached          decimal.Decimal `json:"cached"`
	Computed        decimal.Decimal `json:"computed"`
}

// BalanceMismatch flags an account whose cached balance diverged from the
// balance recomputed from its entries.
type BalanceMismatch struct {
	AccountID  string          `json:"accountID"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Cached     decimal.Decimal `json:"cached"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"` // Cached - Computed
}

// WalletMismatch flags a customer whose cached wallet balance disagrees with
// the wallet transaction log.
type WalletMismatch struct {
	CustomerID       string          `json:"customerID"`
	Name             string          `json:"name"`
	Cached           decimal.Decimal `json:"cached"`
	Computed         decimal.Decimal `json:"computed"` // Credits minus debits
	LastBalanceAfter decimal.Decimal `json:"lastBalanceAfter"`
}

// TrialBalanceRow is one account in the trial balance, recomputed from
// entries and placed on the side declared by its account type's normal
// balance. NegativeOnNormalSide marks balances the algebraic shortcut would
// have silently moved to the other side.
type TrialBalanceRow struct {
	AccountID            string          `json:"accountID"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	AccountTypeCode      AccountTypeCode `json:"accountType"`
	NormalBalance        NormalBalance   `json:"normalBalance"`
	Balance              decimal.Decimal `json:"balance"`
	NegativeOnNormalSide bool            `json:"negativeOnNormalSide,omitempty"`
}

// TrialBalanceSummary is the two-sided trial balance with its equality check.
type TrialBalanceSummary struct {
	Rows        []TrialBalanceRow `json:"rows"`
	DebitTotal  decimal.Decimal   `json:"debitTotal"`
	CreditTotal decimal.Decimal   `json:"creditTotal"`
	Balanced    bool              `json:"balanced"`
}

// LedgerValidationReport is the full diagnostic output of the offline
// validator. Findings are data, not errors; Healthy is true when every
// section came back clean.
type LedgerValidationReport struct {
	RanAt                  time.Time              `json:"ranAt"`
	UnbalancedTransactions []TransactionImbalance `json:"unbalancedTransactions"`
	TotalDebits            decimal.Decimal        `json:"totalDebits"`
	TotalCredits           decimal.Decimal        `json:"totalCredits"`
	SystemBalanced         bool                   `json:"systemBalanced"`
	TrialBalance           TrialBalanceSummary    `json:"trialBalance"`
	BalanceMismatches      []BalanceMismatch      `json:"balanceMismatches"`
	WalletMismatches       []WalletMismatch       `json:"walletMismatches"`
	Healthy                bool                   `json:"healthy"`
}
