package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

type customerHandler struct {
	customerService portssvc.CustomerSvcFacade
}

func newCustomerHandler(customerService portssvc.CustomerSvcFacade) *customerHandler {
	return &customerHandler{customerService: customerService}
}

// registerCustomerRoutes sets up the customer and wallet routes. All of them
// are cashier level; wallet movements are day-to-day till operations.
func registerCustomerRoutes(rg *gin.RouterGroup, customerService portssvc.CustomerSvcFacade) {
	h := newCustomerHandler(customerService)

	customers := rg.Group("/customers")
	{
		customers.GET("", h.listCustomers)
		customers.POST("", h.createCustomer)
		customers.GET("/:id", h.getCustomer)
		customers.PUT("/:id", h.updateCustomer)
		customers.DELETE("/:id", h.deactivateCustomer)
		customers.POST("/:id/wallet-transactions", h.applyWalletTransaction)
		customers.GET("/:id/wallet-transactions", h.listWalletTransactions)
	}
}

// listCustomers godoc
// @Summary List customers
// @Description Retrieves a paginated list of customers ordered by name.
// @Tags customers
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListCustomersResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers [get]
func (h *customerHandler) listCustomers(c *gin.Context) {
	var params dto.ListCustomersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	customers, err := h.customerService.ListCustomers(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "Failed to list customers")
		return
	}

	c.JSON(http.StatusOK, dto.ToListCustomersResponse(customers))
}

// createCustomer godoc
// @Summary Create a customer
// @Description Registers a new customer with a zero wallet balance.
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body dto.CreateCustomerRequest true "Customer details"
// @Success 201 {object} dto.CustomerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *customerHandler) createCustomer(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, dto.ToCustomerResponse(customer))
}

// getCustomer godoc
// @Summary Get a customer
// @Description Retrieves a single customer, including the current wallet balance.
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.CustomerResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [get]
func (h *customerHandler) getCustomer(c *gin.Context) {
	customer, err := h.customerService.GetCustomerByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get customer")
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerResponse(customer))
}

// updateCustomer godoc
// @Summary Update a customer
// @Description Updates a customer's contact details.
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param customer body dto.UpdateCustomerRequest true "Fields to update"
// @Success 200 {object} dto.CustomerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [put]
func (h *customerHandler) updateCustomer(c *gin.Context) {
	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerResponse(customer))
}

// deactivateCustomer godoc
// @Summary Deactivate a customer
// @Description Marks a customer as inactive. The wallet balance is preserved.
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [delete]
func (h *customerHandler) deactivateCustomer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.customerService.DeactivateCustomer(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to deactivate customer")
		return
	}

	c.Status(http.StatusNoContent)
}

// applyWalletTransaction godoc
// @Summary Apply a wallet transaction
// @Description Credits or debits a customer's wallet. A DEBIT that exceeds the balance is rejected; wallets never go negative.
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param transaction body dto.ApplyWalletTransactionRequest true "Wallet movement"
// @Success 201 {object} dto.WalletTransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id}/wallet-transactions [post]
func (h *customerHandler) applyWalletTransaction(c *gin.Context) {
	var req dto.ApplyWalletTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	txn, err := h.customerService.ApplyWalletTransaction(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to apply wallet transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToWalletTransactionResponse(txn))
}

// listWalletTransactions godoc
// @Summary List wallet transactions
// @Description Retrieves a customer's wallet statement, newest first, with cursor pagination.
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListWalletTransactionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id}/wallet-transactions [get]
func (h *customerHandler) listWalletTransactions(c *gin.Context) {
	var params dto.ListWalletTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.customerService.ListWalletTransactions(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		respondError(c, err, "Failed to list wallet transactions")
		return
	}

	c.JSON(http.StatusOK, resp)
}
