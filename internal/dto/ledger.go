package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// EntryInputRequest defines one journal entry line within a posting request.
type EntryInputRequest struct {
	AccountID   string           `json:"accountID" binding:"required"`
	EntryType   domain.EntryType `json:"entryType" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal  `json:"amount" binding:"required"`
	Description string           `json:"description"` // Optional
}

// PostTransactionRequest defines the data needed to post a manual transaction.
// Entries must balance; the service rejects anything that does not.
type PostTransactionRequest struct {
	TransactionDate time.Time           `json:"transactionDate" binding:"required"`
	Description     string              `json:"description" binding:"required"`
	Entries         []EntryInputRequest `json:"entries" binding:"required,min=2,dive"`
}

// ReferenceResponse identifies the business document an entry originated from.
type ReferenceResponse struct {
	Kind domain.ReferenceKind `json:"kind"`
	ID   string               `json:"id"`
}

// TransactionResponse defines the data returned for a posted transaction.
type TransactionResponse struct {
	TransactionID          string                   `json:"transactionID"`
	TransactionDate        time.Time                `json:"transactionDate"`
	Description            string                   `json:"description"`
	Status                 domain.TransactionStatus `json:"status"`
	OriginalTransactionID  string                   `json:"originalTransactionID,omitempty"`
	ReversingTransactionID string                   `json:"reversingTransactionID,omitempty"`
	BranchID               string                   `json:"branchID,omitempty"`
	CreatedAt              time.Time                `json:"createdAt"`
	CreatedBy              string                   `json:"createdBy"`
}

// JournalEntryResponse defines the data returned for a single entry line.
type JournalEntryResponse struct {
	EntryID        string             `json:"entryID"`
	TransactionID  string             `json:"transactionID"`
	AccountID      string             `json:"accountID"`
	EntryType      domain.EntryType   `json:"entryType"`
	Amount         decimal.Decimal    `json:"amount"`
	EntryDate      time.Time          `json:"entryDate"`
	Description    string             `json:"description"`
	Reference      *ReferenceResponse `json:"reference,omitempty"`
	RunningBalance decimal.Decimal    `json:"runningBalance"`
}

// GetTransactionResponse combines a transaction with its entry lines.
type GetTransactionResponse struct {
	Transaction TransactionResponse    `json:"transaction"`
	Entries     []JournalEntryResponse `json:"entries"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:          txn.TransactionID,
		TransactionDate:        txn.TransactionDate,
		Description:            txn.Description,
		Status:                 txn.Status,
		OriginalTransactionID:  txn.OriginalTransactionID,
		ReversingTransactionID: txn.ReversingTransactionID,
		BranchID:               txn.BranchID,
		CreatedAt:              txn.CreatedAt,
		CreatedBy:              txn.CreatedBy,
	}
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		EntryID:        e.EntryID,
		TransactionID:  e.TransactionID,
		AccountID:      e.AccountID,
		EntryType:      e.EntryType,
		Amount:         e.Amount,
		EntryDate:      e.EntryDate,
		Description:    e.Description,
		RunningBalance: e.RunningBalance,
	}
	if e.Reference != nil {
		resp.Reference = &ReferenceResponse{Kind: e.Reference.Kind, ID: e.Reference.ID}
	}
	return resp
}

// ToJournalEntryResponses converts a slice of domain.JournalEntry to DTOs.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	responses := make([]JournalEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToJournalEntryResponse(&e)
	}
	return responses
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit            int     `form:"limit,default=20"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals,default=true"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ListEntriesParams defines query parameters for listing an account's entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of journal entries.
type ListEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// PostingResultResponse reports the outcome of a ledger posting attempt
// made on behalf of an approval. Posted=false means the approval stands
// but the posting must be repaired.
type PostingResultResponse struct {
	Posted        bool   `json:"posted"`
	TransactionID string `json:"transactionID,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// ToPostingResultResponse converts a domain.PostingResult to a DTO.
func ToPostingResultResponse(r domain.PostingResult) PostingResultResponse {
	return PostingResultResponse{
		Posted:        r.Posted,
		TransactionID: r.TransactionID,
		FailureReason: r.FailureReason,
	}
}
