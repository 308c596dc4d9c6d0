package domain

import (
	"github.com/shopspring/decimal"
)

// NormalBalance is the side on which an account type increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// AccountTypeCode identifies one of the five fundamental accounting types.
type AccountTypeCode string

const (
	Asset              AccountTypeCode = "ASSET"
	Liability          AccountTypeCode = "LIABILITY"
	Equity             AccountTypeCode = "EQUITY"
	Revenue            AccountTypeCode = "REVENUE"
	AccountTypeExpense AccountTypeCode = "EXPENSE"
)

// AccountType is the seeded reference row behind AccountTypeCode.
// NormalBalance drives every sign decision in the ledger; the five rows are
// immutable after seeding.
type AccountType struct {
	Code          AccountTypeCode `json:"code"` // Primary key
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	NormalBalance NormalBalance   `json:"normalBalance"`
}

// Account represents one account in the chart of accounts.
// CurrentBalance is the cached derived balance; it must equal
// OpeningBalance plus the signed sum of the account's journal entries at all
// times outside an in-flight posting transaction.
type Account struct {
	AccountID       string          `json:"accountID"`   // Primary key (UUID)
	Code            string          `json:"code"`        // Human chart code, unique (e.g. "1010")
	Name            string          `json:"name"`        // User-defined name
	AccountTypeCode AccountTypeCode `json:"accountType"` // FK -> account_types.code
	ParentAccountID string          `json:"parentAccountID,omitempty"`
	Description     string          `json:"description,omitempty"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	IsActive        bool            `json:"isActive"`
	AuditFields
}

// AccountRole names a well-known slot in the chart that posting recipes
// resolve through chart_defaults instead of hardcoding account codes.
type AccountRole string

const (
	RoleCash               AccountRole = "CASH"
	RoleAccountsReceivable AccountRole = "ACCOUNTS_RECEIVABLE"
	RoleWalletLiability    AccountRole = "WALLET_LIABILITY"
	RoleSalesRevenue       AccountRole = "SALES_REVENUE"
	RoleOtherIncome        AccountRole = "OTHER_INCOME"
	RoleGeneralExpense     AccountRole = "GENERAL_EXPENSE"
)

// BalanceResult is the outcome of an explicit balance recompute.
type BalanceResult struct {
	AccountID    string          `json:"accountID"`
	CachedBefore decimal.Decimal `json:"cachedBefore"`
	Computed     decimal.Decimal `json:"computed"`
	Corrected    bool            `json:"corrected"` // True when the cache was divergent and got overwritten
}
