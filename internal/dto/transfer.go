package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateTransferRequest defines the data needed to record a money transfer.
// A nil leg means physical cash on that side; at least one leg must be set.
type CreateTransferRequest struct {
	FromBankAccountID *string         `json:"fromBankAccountID"` // Optional: nil means cash
	ToBankAccountID   *string         `json:"toBankAccountID"`   // Optional: nil means cash
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	ReferenceNo       string          `json:"referenceNo"` // Optional
	Notes             string          `json:"notes"`       // Optional
	TransferDate      time.Time       `json:"transferDate" binding:"required"`
}

// TransferResponse defines the data returned for a money transfer.
type TransferResponse struct {
	TransferID          string                `json:"transferID"`
	FromBankAccountID   *string               `json:"fromBankAccountID,omitempty"`
	ToBankAccountID     *string               `json:"toBankAccountID,omitempty"`
	Amount              decimal.Decimal       `json:"amount"`
	ReferenceNo         string                `json:"referenceNo,omitempty"`
	Notes               string                `json:"notes,omitempty"`
	TransferDate        time.Time             `json:"transferDate"`
	Status              domain.TransferStatus `json:"status"`
	ApprovedBy          string                `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time            `json:"approvedAt,omitempty"`
	FailureReason       string                `json:"failureReason,omitempty"`
	LedgerTransactionID *string               `json:"ledgerTransactionID,omitempty"`
	BranchID            string                `json:"branchID,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
	CreatedBy           string                `json:"createdBy"`
}

// ToTransferResponse converts a domain.MoneyTransfer to a DTO.
func ToTransferResponse(t *domain.MoneyTransfer) TransferResponse {
	return TransferResponse{
		TransferID:          t.TransferID,
		FromBankAccountID:   t.FromBankAccountID,
		ToBankAccountID:     t.ToBankAccountID,
		Amount:              t.Amount,
		ReferenceNo:         t.ReferenceNo,
		Notes:               t.Notes,
		TransferDate:        t.TransferDate,
		Status:              t.Status,
		ApprovedBy:          t.ApprovedBy,
		ApprovedAt:          t.ApprovedAt,
		FailureReason:       t.FailureReason,
		LedgerTransactionID: t.LedgerTransactionID,
		BranchID:            t.BranchID,
		CreatedAt:           t.CreatedAt,
		CreatedBy:           t.CreatedBy,
	}
}

// ListTransfersParams defines query parameters for listing transfers.
type ListTransfersParams struct {
	Status        *string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED CANCELLED"`
	BankAccountID *string `form:"bankAccountID"` // Matches either leg
	Limit         int     `form:"limit,default=20"`
	NextToken     *string `form:"nextToken"`
}

// ListTransfersResponse wraps a page of transfers.
type ListTransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ApproveTransferResponse combines the completed transfer with the outcome
// of its ledger posting.
type ApproveTransferResponse struct {
	Transfer TransferResponse      `json:"transfer"`
	Posting  PostingResultResponse `json:"posting"`
}

// FailTransferRequest carries the reason a transfer is being marked FAILED.
type FailTransferRequest struct {
	Reason string `json:"reason" binding:"required"`
}
