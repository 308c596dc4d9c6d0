package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a known buyer with an optional prepaid wallet.
// WalletBalance is cached; the append-only wallet transaction log is the
// source of truth and the two must agree at all times.
type Customer struct {
	CustomerID    string          `json:"customerID"` // Primary key (UUID)
	Name          string          `json:"name"`
	Phone         string          `json:"phone"` // Unique
	Email         string          `json:"email,omitempty"`
	Address       string          `json:"address,omitempty"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	IsActive      bool            `json:"isActive"`
	AuditFields
}

// WalletTransactionType indicates the direction of a wallet movement.
type WalletTransactionType string

const (
	WalletCredit WalletTransactionType = "CREDIT"
	WalletDebit  WalletTransactionType = "DEBIT"
)

// CustomerWalletTransaction is one append-only row in a customer's wallet
// ledger. BalanceAfter snapshots the wallet balance immediately after this
// row was applied, so the log is auditable without replaying it.
type CustomerWalletTransaction struct {
	WalletTxnID     string                `json:"walletTxnID"` // Primary key (UUID)
	CustomerID      string                `json:"customerID"`
	TransactionType WalletTransactionType `json:"transactionType"`
	Amount          decimal.Decimal       `json:"amount"` // Strictly positive
	BalanceAfter    decimal.Decimal       `json:"balanceAfter"`
	Reason          string                `json:"reason"`
	Reference       *Reference            `json:"reference,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	CreatedBy       string                `json:"createdBy"`
}
