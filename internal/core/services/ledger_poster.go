package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
)

// ledgerPoster adapts the posting engine for approval flows. The approval
// itself commits first; if the follow-up posting fails the failure is
// captured in the result instead of an error, leaving the approval standing
// with a missing ledger transaction to be repaired later.
type ledgerPoster struct {
	BaseService
	engine *ledgerService
}

// NewLedgerPoster creates the posting capability handed to approval services.
func NewLedgerPoster(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.LedgerPoster {
	return &ledgerPoster{
		engine: &ledgerService{
			ledgerRepo: ledgerRepo,
			accountSvc: accountSvc,
		},
	}
}

// Ensure ledgerPoster implements the portssvc.LedgerPoster interface
var _ portssvc.LedgerPoster = (*ledgerPoster)(nil)

func (p *ledgerPoster) PostForReference(ctx context.Context, ref domain.Reference, date time.Time, description string, entries []domain.EntryInput, branchID string, userID string) domain.PostingResult {
	txn, err := p.engine.postEntries(ctx, date, description, entries, &ref, branchID, userID)
	if err != nil {
		p.LogWarn(ctx, "Ledger posting failed; source record stands and needs repair",
			slog.String("reference", ref.String()),
			slog.String("error", err.Error()))
		return domain.PostingResult{
			Posted:        false,
			FailureReason: err.Error(),
		}
	}

	return domain.PostingResult{
		Posted:        true,
		TransactionID: txn.TransactionID,
	}
}
