package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CalculateSignedAmount applies the correct sign to an entry amount based on
// the account's normal balance side and the entry side.
// This is used in both services and repositories to keep the accounting
// convention in one place:
//
//	DEBIT entry to a DEBIT-normal account   -> Positive (+)
//	CREDIT entry to a DEBIT-normal account  -> Negative (-)
//	DEBIT entry to a CREDIT-normal account  -> Negative (-)
//	CREDIT entry to a CREDIT-normal account -> Positive (+)
func CalculateSignedAmount(entryType domain.EntryType, amount decimal.Decimal, normal domain.NormalBalance) (decimal.Decimal, error) {
	switch normal {
	case domain.NormalDebit, domain.NormalCredit:
	default:
		return decimal.Zero, fmt.Errorf("unknown normal balance %q", normal)
	}
	switch entryType {
	case domain.Debit, domain.Credit:
	default:
		return decimal.Zero, fmt.Errorf("unknown entry type %q", entryType)
	}

	if (entryType == domain.Debit) == (normal == domain.NormalDebit) {
		return amount, nil
	}
	return amount.Neg(), nil
}

// ValidateAmountPrecision rejects amounts that are not positive or carry
// more than two decimal places. Money is fixed-point end to end.
// Failures wrap apperrors.ErrInvalidAmount.
func ValidateAmountPrecision(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidAmount, amount)
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("%w: amount %s has more than two decimal places", apperrors.ErrInvalidAmount, amount)
	}
	return nil
}

// ValidateEntriesBalance checks that a prospective transaction's entries are
// individually positive and collectively balanced: total debits must equal
// total credits, and at least two entries over at least two distinct
// accounts are required. Structural failures wrap apperrors.ErrUnbalanced;
// per-entry amount failures wrap apperrors.ErrInvalidAmount.
func ValidateEntriesBalance(entries []domain.EntryInput) error {
	if len(entries) < 2 {
		return fmt.Errorf("%w: transaction must have at least two entries", apperrors.ErrUnbalanced)
	}

	accounts := make(map[string]struct{}, len(entries))
	debits := decimal.Zero
	credits := decimal.Zero

	for i, entry := range entries {
		if err := ValidateAmountPrecision(entry.Amount); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		accounts[entry.AccountID] = struct{}{}

		switch entry.EntryType {
		case domain.Debit:
			debits = debits.Add(entry.Amount)
		case domain.Credit:
			credits = credits.Add(entry.Amount)
		default:
			return fmt.Errorf("%w: entry %d has unknown entry type %q", apperrors.ErrValidation, i, entry.EntryType)
		}
	}

	if len(accounts) < 2 {
		return fmt.Errorf("%w: transaction must touch at least two distinct accounts", apperrors.ErrUnbalanced)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: entries do not balance: debits %s, credits %s", apperrors.ErrUnbalanced, debits, credits)
	}
	return nil
}
