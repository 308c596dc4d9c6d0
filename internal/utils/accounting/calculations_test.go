package accounting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	"github.com/shopledger/shopledger_backend/internal/utils/accounting"
)

func TestCalculateSignedAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name      string
		entryType domain.EntryType
		normal    domain.NormalBalance
		want      decimal.Decimal
		wantErr   bool
	}{
		{"debit to debit-normal", domain.Debit, domain.NormalDebit, hundred, false},
		{"credit to debit-normal", domain.Credit, domain.NormalDebit, hundred.Neg(), false},
		{"debit to credit-normal", domain.Debit, domain.NormalCredit, hundred.Neg(), false},
		{"credit to credit-normal", domain.Credit, domain.NormalCredit, hundred, false},
		{"unknown normal balance", domain.Debit, domain.NormalBalance("BOTH"), decimal.Zero, true},
		{"unknown entry type", domain.EntryType("TRANSFER"), domain.NormalDebit, decimal.Zero, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.CalculateSignedAmount(tt.entryType, hundred, tt.normal)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestValidateAmountPrecision(t *testing.T) {
	assert.NoError(t, accounting.ValidateAmountPrecision(decimal.NewFromInt(10)))
	assert.NoError(t, accounting.ValidateAmountPrecision(decimal.RequireFromString("10.25")))
	assert.Error(t, accounting.ValidateAmountPrecision(decimal.Zero))
	assert.Error(t, accounting.ValidateAmountPrecision(decimal.NewFromInt(-5)))
	assert.Error(t, accounting.ValidateAmountPrecision(decimal.RequireFromString("10.255")))
}

func TestValidateEntriesBalance(t *testing.T) {
	debit := func(account string, amount string) domain.EntryInput {
		return domain.EntryInput{AccountID: account, EntryType: domain.Debit, Amount: decimal.RequireFromString(amount)}
	}
	credit := func(account string, amount string) domain.EntryInput {
		return domain.EntryInput{AccountID: account, EntryType: domain.Credit, Amount: decimal.RequireFromString(amount)}
	}

	tests := []struct {
		name    string
		entries []domain.EntryInput
		wantErr string
		wantIs  error
	}{
		{
			name:    "balanced pair",
			entries: []domain.EntryInput{debit("cash", "100.00"), credit("revenue", "100.00")},
		},
		{
			name: "balanced split across three accounts",
			entries: []domain.EntryInput{
				debit("cash", "60.00"),
				debit("receivable", "40.00"),
				credit("revenue", "100.00"),
			},
		},
		{
			name:    "single entry",
			entries: []domain.EntryInput{debit("cash", "100.00")},
			wantErr: "at least two entries",
			wantIs:  apperrors.ErrUnbalanced,
		},
		{
			name:    "same account both sides",
			entries: []domain.EntryInput{debit("cash", "100.00"), credit("cash", "100.00")},
			wantErr: "distinct accounts",
			wantIs:  apperrors.ErrUnbalanced,
		},
		{
			name:    "unbalanced",
			entries: []domain.EntryInput{debit("cash", "100.00"), credit("revenue", "90.00")},
			wantErr: "do not balance",
			wantIs:  apperrors.ErrUnbalanced,
		},
		{
			name:    "negative amount",
			entries: []domain.EntryInput{debit("cash", "-100.00"), credit("revenue", "-100.00")},
			wantErr: "must be positive",
			wantIs:  apperrors.ErrInvalidAmount,
		},
		{
			name: "sub-cent precision",
			entries: []domain.EntryInput{
				debit("cash", "100.005"),
				credit("revenue", "100.005"),
			},
			wantErr: "decimal places",
			wantIs:  apperrors.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounting.ValidateEntriesBalance(tt.entries)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}
