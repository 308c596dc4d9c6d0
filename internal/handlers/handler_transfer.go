package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

type transferHandler struct {
	transferService portssvc.TransferSvcFacade
}

func newTransferHandler(transferService portssvc.TransferSvcFacade) *transferHandler {
	return &transferHandler{transferService: transferService}
}

// registerTransferRoutes sets up the money transfer routes. Creating and
// reading transfers is cashier level; every state transition needs a manager.
func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade) {
	h := newTransferHandler(transferService)
	manager := middleware.RequireRole(domain.RoleManager)

	transfers := rg.Group("/transfers")
	{
		transfers.GET("", h.listTransfers)
		transfers.POST("", h.createTransfer)
		transfers.GET("/:id", h.getTransfer)
		transfers.POST("/:id/process", manager, h.markProcessing)
		transfers.POST("/:id/approve", manager, h.approveTransfer)
		transfers.POST("/:id/cancel", manager, h.cancelTransfer)
		transfers.POST("/:id/fail", manager, h.failTransfer)
	}
}

// listTransfers godoc
// @Summary List transfers
// @Description Retrieves transfers newest first with cursor pagination, optionally filtered by status or bank account.
// @Tags transfers
// @Produce json
// @Param status query string false "Filter by status" Enums(PENDING, PROCESSING, COMPLETED, FAILED, CANCELLED)
// @Param bankAccountID query string false "Filter by bank account on either leg"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListTransfersResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers [get]
func (h *transferHandler) listTransfers(c *gin.Context) {
	var params dto.ListTransfersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.transferService.ListTransfers(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list transfers")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// createTransfer godoc
// @Summary Create a transfer
// @Description Records a money transfer in PENDING state. No balances move until approval. A nil leg means physical cash on that side.
// @Tags transfers
// @Accept json
// @Produce json
// @Param transfer body dto.CreateTransferRequest true "Transfer details"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers [post]
func (h *transferHandler) createTransfer(c *gin.Context) {
	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.CreateTransfer(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create transfer")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransferResponse(transfer))
}

// getTransfer godoc
// @Summary Get a transfer
// @Description Retrieves a single transfer by its ID.
// @Tags transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers/{id} [get]
func (h *transferHandler) getTransfer(c *gin.Context) {
	transfer, err := h.transferService.GetTransferByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get transfer")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// markProcessing godoc
// @Summary Mark a transfer as processing
// @Description Claims a PENDING transfer for settlement. Only one caller wins; the loser gets a conflict.
// @Tags transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers/{id}/process [post]
func (h *transferHandler) markProcessing(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.MarkProcessing(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to mark transfer as processing")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// approveTransfer godoc
// @Summary Approve a transfer
// @Description Completes a PENDING or PROCESSING transfer. Bank balances move exactly once; the ledger posting is then attempted and its outcome is reported alongside the transfer. A posting failure does not undo the completion.
// @Tags transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.ApproveTransferResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers/{id}/approve [post]
func (h *transferHandler) approveTransfer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	transfer, posting, err := h.transferService.ApproveTransfer(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to approve transfer")
		return
	}

	c.JSON(http.StatusOK, dto.ApproveTransferResponse{
		Transfer: dto.ToTransferResponse(transfer),
		Posting:  dto.ToPostingResultResponse(posting),
	})
}

// cancelTransfer godoc
// @Summary Cancel a transfer
// @Description Cancels a PENDING or PROCESSING transfer. Completed transfers cannot be cancelled, only reversed through the ledger.
// @Tags transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers/{id}/cancel [post]
func (h *transferHandler) cancelTransfer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.CancelTransfer(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to cancel transfer")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// failTransfer godoc
// @Summary Fail a transfer
// @Description Marks a PENDING or PROCESSING transfer as FAILED with a reason. No balances move.
// @Tags transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param body body dto.FailTransferRequest true "Failure reason"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transfers/{id}/fail [post]
func (h *transferHandler) failTransfer(c *gin.Context) {
	var req dto.FailTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.FailTransfer(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondError(c, err, "Failed to mark transfer as failed")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}
