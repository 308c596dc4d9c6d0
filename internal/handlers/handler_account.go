package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
}

func newAccountHandler(accountService portssvc.AccountSvcFacade, ledgerService portssvc.LedgerSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
	}
}

// RegisterAccountRoutes sets up the chart-of-accounts routes. Mutations are
// restricted to managers; reads are open to any authenticated user.
func RegisterAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := newAccountHandler(accountService, ledgerService)
	manager := middleware.RequireRole(domain.RoleManager)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.POST("", manager, h.createAccount)
		accounts.GET("/:id", h.getAccount)
		accounts.PUT("/:id", manager, h.updateAccount)
		accounts.DELETE("/:id", manager, h.deactivateAccount)
		accounts.GET("/:id/balance", h.getAccountBalance)
		accounts.POST("/:id/recompute-balance", manager, h.recomputeBalance)
		accounts.GET("/:id/entries", h.listAccountEntries)
	}
	rg.GET("/account-types", h.listAccountTypes)
	rg.PUT("/chart-defaults/:role", manager, h.setChartDefault)
}

// listAccounts godoc
// @Summary List accounts
// @Description Retrieves a paginated list of accounts, optionally filtered by type and active status.
// @Tags accounts
// @Produce json
// @Param accountType query string false "Filter by account type" Enums(ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE)
// @Param activeOnly query bool false "Only return active accounts"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list accounts")
		return
	}

	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts)})
}

// createAccount godoc
// @Summary Create an account
// @Description Creates a new account in the chart of accounts.
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account
// @Description Retrieves a single account by its ID.
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// updateAccount godoc
// @Summary Update an account
// @Description Updates the name, description or active flag of an account.
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param account body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id} [put]
func (h *accountHandler) updateAccount(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Marks an account as inactive. Postings against it are rejected from then on; history is preserved.
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to deactivate account")
		return
	}

	c.Status(http.StatusNoContent)
}

// getAccountBalance godoc
// @Summary Get account balance
// @Description Returns the cached balance, or recomputes the balance as of a historical date when asOf is given.
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param asOf query string false "Historical date (YYYY-MM-DD)"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	accountID := c.Param("id")

	var asOf *time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid asOf date, expected YYYY-MM-DD"})
			return
		}
		asOf = &parsed
	}

	balance, err := h.accountService.GetBalance(c.Request.Context(), accountID, asOf)
	if err != nil {
		respondError(c, err, "Failed to get balance")
		return
	}

	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID: accountID,
		Balance:   balance,
		AsOf:      asOf,
	})
}

// recomputeBalance godoc
// @Summary Recompute account balance
// @Description Rebuilds the cached balance from the journal entry log and reports whether a divergence was corrected.
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} dto.RecomputeBalanceResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id}/recompute-balance [post]
func (h *accountHandler) recomputeBalance(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.accountService.RecomputeBalance(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to recompute balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToRecomputeBalanceResponse(result))
}

// listAccountEntries godoc
// @Summary List journal entries for an account
// @Description Retrieves the journal entries posted against an account, newest first, with cursor pagination.
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id}/entries [get]
func (h *accountHandler) listAccountEntries(c *gin.Context) {
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntriesByAccount(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		respondError(c, err, "Failed to list entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listAccountTypes godoc
// @Summary List account types
// @Description Retrieves the five seeded account types with their normal balance sides.
// @Tags accounts
// @Produce json
// @Success 200 {array} dto.AccountTypeResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /account-types [get]
func (h *accountHandler) listAccountTypes(c *gin.Context) {
	types, err := h.accountService.ListAccountTypes(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list account types")
		return
	}

	c.JSON(http.StatusOK, dto.ToListAccountTypeResponse(types))
}

// setChartDefault godoc
// @Summary Set a chart default
// @Description Points a chart-default role (CASH, ACCOUNTS_RECEIVABLE, WALLET_LIABILITY, SALES_REVENUE, OTHER_INCOME, GENERAL_EXPENSE) at an account. Posting recipes resolve their counterpart accounts through these defaults.
// @Tags accounts
// @Accept json
// @Produce json
// @Param role path string true "Chart role"
// @Param body body dto.SetChartDefaultRequest true "Target account"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /chart-defaults/{role} [put]
func (h *accountHandler) setChartDefault(c *gin.Context) {
	var req dto.SetChartDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	role := domain.AccountRole(c.Param("role"))
	if err := h.accountService.SetDefaultAccount(c.Request.Context(), role, req.AccountID, userID); err != nil {
		respondError(c, err, "Failed to set chart default")
		return
	}

	c.Status(http.StatusNoContent)
}
