package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

type bankAccountHandler struct {
	bankAccountService portssvc.BankAccountSvcFacade
}

func newBankAccountHandler(bankAccountService portssvc.BankAccountSvcFacade) *bankAccountHandler {
	return &bankAccountHandler{bankAccountService: bankAccountService}
}

// registerBankAccountRoutes sets up the bank account routes. Mutations are
// manager operations.
func registerBankAccountRoutes(rg *gin.RouterGroup, bankAccountService portssvc.BankAccountSvcFacade) {
	h := newBankAccountHandler(bankAccountService)
	manager := middleware.RequireRole(domain.RoleManager)

	bankAccounts := rg.Group("/bank-accounts")
	{
		bankAccounts.GET("", h.listBankAccounts)
		bankAccounts.POST("", manager, h.createBankAccount)
		bankAccounts.GET("/:id", h.getBankAccount)
		bankAccounts.PUT("/:id", manager, h.updateBankAccount)
		bankAccounts.DELETE("/:id", manager, h.deactivateBankAccount)
	}
}

// listBankAccounts godoc
// @Summary List bank accounts
// @Description Retrieves all bank accounts, optionally only the active ones.
// @Tags bank-accounts
// @Produce json
// @Param activeOnly query bool false "Only return active bank accounts"
// @Success 200 {object} dto.ListBankAccountsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /bank-accounts [get]
func (h *bankAccountHandler) listBankAccounts(c *gin.Context) {
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("activeOnly", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid activeOnly value"})
		return
	}

	accounts, err := h.bankAccountService.ListBankAccounts(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err, "Failed to list bank accounts")
		return
	}

	c.JSON(http.StatusOK, dto.ToListBankAccountsResponse(accounts))
}

// createBankAccount godoc
// @Summary Create a bank account
// @Description Registers a bank account and creates its linked asset ledger account.
// @Tags bank-accounts
// @Accept json
// @Produce json
// @Param bankAccount body dto.CreateBankAccountRequest true "Bank account details"
// @Success 201 {object} dto.BankAccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /bank-accounts [post]
func (h *bankAccountHandler) createBankAccount(c *gin.Context) {
	var req dto.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := h.bankAccountService.CreateBankAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create bank account")
		return
	}

	c.JSON(http.StatusCreated, dto.ToBankAccountResponse(account))
}

// getBankAccount godoc
// @Summary Get a bank account
// @Description Retrieves a single bank account by its ID.
// @Tags bank-accounts
// @Produce json
// @Param id path string true "Bank Account ID"
// @Success 200 {object} dto.BankAccountResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /bank-accounts/{id} [get]
func (h *bankAccountHandler) getBankAccount(c *gin.Context) {
	account, err := h.bankAccountService.GetBankAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get bank account")
		return
	}

	c.JSON(http.StatusOK, dto.ToBankAccountResponse(account))
}

// updateBankAccount godoc
// @Summary Update a bank account
// @Description Updates a bank account's name, bank name or account number.
// @Tags bank-accounts
// @Accept json
// @Produce json
// @Param id path string true "Bank Account ID"
// @Param bankAccount body dto.UpdateBankAccountRequest true "Fields to update"
// @Success 200 {object} dto.BankAccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /bank-accounts/{id} [put]
func (h *bankAccountHandler) updateBankAccount(c *gin.Context) {
	var req dto.UpdateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := h.bankAccountService.UpdateBankAccount(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update bank account")
		return
	}

	c.JSON(http.StatusOK, dto.ToBankAccountResponse(account))
}

// deactivateBankAccount godoc
// @Summary Deactivate a bank account
// @Description Marks a bank account as inactive. Pending transfers against it still settle.
// @Tags bank-accounts
// @Produce json
// @Param id path string true "Bank Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /bank-accounts/{id} [delete]
func (h *bankAccountHandler) deactivateBankAccount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.bankAccountService.DeactivateBankAccount(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to deactivate bank account")
		return
	}

	c.Status(http.StatusNoContent)
}
