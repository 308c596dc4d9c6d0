package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(expenseService portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: expenseService}
}

// registerExpenseRoutes sets up the expense and expense category routes.
// Anyone can record an expense; approving, rejecting and category changes
// are manager operations.
func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)
	manager := middleware.RequireRole(domain.RoleManager)

	categories := rg.Group("/expense-categories")
	{
		categories.GET("", h.listExpenseCategories)
		categories.POST("", manager, h.createExpenseCategory)
		categories.PUT("/:id", manager, h.updateExpenseCategory)
	}

	expenses := rg.Group("/expenses")
	{
		expenses.GET("", h.listExpenses)
		expenses.POST("", h.createExpense)
		expenses.GET("/:id", h.getExpense)
		expenses.PUT("/:id", h.updateExpense)
		expenses.DELETE("/:id", h.deleteExpense)
		expenses.POST("/:id/approve", manager, h.approveExpense)
		expenses.POST("/:id/reject", manager, h.rejectExpense)
	}
}

// listExpenseCategories godoc
// @Summary List expense categories
// @Description Retrieves all expense categories.
// @Tags expenses
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expense-categories [get]
func (h *expenseHandler) listExpenseCategories(c *gin.Context) {
	categories, err := h.expenseService.ListExpenseCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list expense categories")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseCategoryResponses(categories))
}

// createExpenseCategory godoc
// @Summary Create an expense category
// @Description Creates an expense category, optionally mapped to a specific ledger account.
// @Tags expenses
// @Accept json
// @Produce json
// @Param category body dto.CreateCategoryRequest true "Category details"
// @Success 201 {object} dto.CategoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expense-categories [post]
func (h *expenseHandler) createExpenseCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	category, err := h.expenseService.CreateExpenseCategory(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create expense category")
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseCategoryResponse(category))
}

// updateExpenseCategory godoc
// @Summary Update an expense category
// @Description Updates an expense category's name, description or mapped ledger account.
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param category body dto.UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} dto.CategoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expense-categories/{id} [put]
func (h *expenseHandler) updateExpenseCategory(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	category, err := h.expenseService.UpdateExpenseCategory(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update expense category")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseCategoryResponse(category))
}

// listExpenses godoc
// @Summary List expenses
// @Description Retrieves expenses newest first with cursor pagination, optionally filtered by status, category and date range.
// @Tags expenses
// @Produce json
// @Param status query string false "Filter by status" Enums(PENDING, APPROVED, REJECTED)
// @Param categoryID query string false "Filter by category"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.expenseService.ListExpenses(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// createExpense godoc
// @Summary Create an expense
// @Description Records an expense in PENDING state. Nothing posts to the ledger until approval.
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create expense")
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// getExpense godoc
// @Summary Get an expense
// @Description Retrieves a single expense by its ID.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// updateExpense godoc
// @Summary Update an expense
// @Description Updates a PENDING expense. Approved or rejected expenses cannot be edited.
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param expense body dto.UpdateExpenseRequest true "Fields to update"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id} [put]
func (h *expenseHandler) updateExpense(c *gin.Context) {
	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// deleteExpense godoc
// @Summary Delete an expense
// @Description Deletes a PENDING expense. Approved expenses live in the ledger and can only be reversed.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id} [delete]
func (h *expenseHandler) deleteExpense(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to delete expense")
		return
	}

	c.Status(http.StatusNoContent)
}

// approveExpense godoc
// @Summary Approve an expense
// @Description Approves a PENDING or REJECTED expense exactly once, then attempts the ledger posting. A posting failure is reported in the response, not rolled back; the approval stands.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ApproveExpenseResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/approve [post]
func (h *expenseHandler) approveExpense(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, posting, err := h.expenseService.ApproveExpense(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to approve expense")
		return
	}

	c.JSON(http.StatusOK, dto.ApproveExpenseResponse{
		Expense: dto.ToExpenseResponse(expense),
		Posting: dto.ToPostingResultResponse(posting),
	})
}

// rejectExpense godoc
// @Summary Reject an expense
// @Description Rejects a PENDING expense. A rejected expense can still be approved later.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/reject [post]
func (h *expenseHandler) rejectExpense(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.RejectExpense(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to reject expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}
