package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

type ledgerHandler struct {
	ledgerService     portssvc.LedgerSvcFacade
	validationService portssvc.LedgerValidationSvc
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade, validationService portssvc.LedgerValidationSvc) *ledgerHandler {
	return &ledgerHandler{
		ledgerService:     ledgerService,
		validationService: validationService,
	}
}

// RegisterLedgerRoutes sets up the journal routes. Direct postings and
// reversals are manager operations; reads are open to any authenticated user.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, validationService portssvc.LedgerValidationSvc) {
	h := newLedgerHandler(ledgerService, validationService)
	manager := middleware.RequireRole(domain.RoleManager)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.listTransactions)
		transactions.POST("", manager, h.postTransaction)
		transactions.GET("/:id", h.getTransaction)
		transactions.POST("/:id/reverse", manager, h.reverseTransaction)
	}
	rg.GET("/ledger/validation", manager, h.runValidation)
}

// postTransaction godoc
// @Summary Post a transaction
// @Description Posts a balanced set of journal entries as one atomic transaction. Unbalanced or invalid entries are rejected and nothing is written.
// @Tags ledger
// @Accept json
// @Produce json
// @Param transaction body dto.PostTransactionRequest true "Transaction to post"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transactions [post]
func (h *ledgerHandler) postTransaction(c *gin.Context) {
	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	txn, err := h.ledgerService.PostTransaction(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to post transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction
// @Description Retrieves a transaction together with its journal entry lines.
// @Tags ledger
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.GetTransactionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	txn, entries, err := h.ledgerService.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get transaction")
		return
	}

	c.JSON(http.StatusOK, dto.GetTransactionResponse{
		Transaction: dto.ToTransactionResponse(txn),
		Entries:     dto.ToJournalEntryResponses(entries),
	})
}

// listTransactions godoc
// @Summary List transactions
// @Description Retrieves transactions newest first with cursor pagination. Reversals are included unless includeReversals=false.
// @Tags ledger
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Param includeReversals query bool false "Include reversal transactions" default(true)
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transactions [get]
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseTransaction godoc
// @Summary Reverse a transaction
// @Description Posts a mirror-image transaction that cancels the original. A transaction can only be reversed once.
// @Tags ledger
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 201 {object} dto.TransactionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transactions/{id}/reverse [post]
func (h *ledgerHandler) reverseTransaction(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	reversal, err := h.ledgerService.ReverseTransaction(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to reverse transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(reversal))
}

// runValidation godoc
// @Summary Run ledger validation
// @Description Sweeps the ledger for unbalanced transactions, cached balance drift and trial balance inequality. Findings are diagnostic; nothing is blocked or repaired.
// @Tags ledger
// @Produce json
// @Success 200 {object} domain.LedgerValidationReport
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /ledger/validation [get]
func (h *ledgerHandler) runValidation(c *gin.Context) {
	report, err := h.validationService.RunValidation(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to run ledger validation")
		return
	}

	c.JSON(http.StatusOK, report)
}
