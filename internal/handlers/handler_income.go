package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

type incomeHandler struct {
	incomeService portssvc.IncomeSvcFacade
}

func newIncomeHandler(incomeService portssvc.IncomeSvcFacade) *incomeHandler {
	return &incomeHandler{incomeService: incomeService}
}

// registerIncomeRoutes sets up the income and income category routes,
// mirroring the expense routes.
func registerIncomeRoutes(rg *gin.RouterGroup, incomeService portssvc.IncomeSvcFacade) {
	h := newIncomeHandler(incomeService)
	manager := middleware.RequireRole(domain.RoleManager)

	categories := rg.Group("/income-categories")
	{
		categories.GET("", h.listIncomeCategories)
		categories.POST("", manager, h.createIncomeCategory)
		categories.PUT("/:id", manager, h.updateIncomeCategory)
	}

	incomes := rg.Group("/incomes")
	{
		incomes.GET("", h.listIncomes)
		incomes.POST("", h.createIncome)
		incomes.GET("/:id", h.getIncome)
		incomes.PUT("/:id", h.updateIncome)
		incomes.DELETE("/:id", h.deleteIncome)
		incomes.POST("/:id/approve", manager, h.approveIncome)
		incomes.POST("/:id/reject", manager, h.rejectIncome)
	}
}

// listIncomeCategories godoc
// @Summary List income categories
// @Description Retrieves all income categories.
// @Tags incomes
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /income-categories [get]
func (h *incomeHandler) listIncomeCategories(c *gin.Context) {
	categories, err := h.incomeService.ListIncomeCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list income categories")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomeCategoryResponses(categories))
}

// createIncomeCategory godoc
// @Summary Create an income category
// @Description Creates an income category, optionally mapped to a specific ledger account.
// @Tags incomes
// @Accept json
// @Produce json
// @Param category body dto.CreateCategoryRequest true "Category details"
// @Success 201 {object} dto.CategoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /income-categories [post]
func (h *incomeHandler) createIncomeCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	category, err := h.incomeService.CreateIncomeCategory(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create income category")
		return
	}

	c.JSON(http.StatusCreated, dto.ToIncomeCategoryResponse(category))
}

// updateIncomeCategory godoc
// @Summary Update an income category
// @Description Updates an income category's name, description or mapped ledger account.
// @Tags incomes
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param category body dto.UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} dto.CategoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /income-categories/{id} [put]
func (h *incomeHandler) updateIncomeCategory(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	category, err := h.incomeService.UpdateIncomeCategory(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update income category")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomeCategoryResponse(category))
}

// listIncomes godoc
// @Summary List incomes
// @Description Retrieves incomes newest first with cursor pagination, optionally filtered by status, category and date range.
// @Tags incomes
// @Produce json
// @Param status query string false "Filter by status" Enums(PENDING, APPROVED, REJECTED)
// @Param categoryID query string false "Filter by category"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListIncomesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes [get]
func (h *incomeHandler) listIncomes(c *gin.Context) {
	var params dto.ListIncomesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.incomeService.ListIncomes(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list incomes")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// createIncome godoc
// @Summary Create an income
// @Description Records a non-sale income in PENDING state. Nothing posts to the ledger until approval.
// @Tags incomes
// @Accept json
// @Produce json
// @Param income body dto.CreateIncomeRequest true "Income details"
// @Success 201 {object} dto.IncomeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes [post]
func (h *incomeHandler) createIncome(c *gin.Context) {
	var req dto.CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	income, err := h.incomeService.CreateIncome(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create income")
		return
	}

	c.JSON(http.StatusCreated, dto.ToIncomeResponse(income))
}

// getIncome godoc
// @Summary Get an income
// @Description Retrieves a single income by its ID.
// @Tags incomes
// @Produce json
// @Param id path string true "Income ID"
// @Success 200 {object} dto.IncomeResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes/{id} [get]
func (h *incomeHandler) getIncome(c *gin.Context) {
	income, err := h.incomeService.GetIncomeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get income")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomeResponse(income))
}

// updateIncome godoc
// @Summary Update an income
// @Description Updates a PENDING income. Approved or rejected incomes cannot be edited.
// @Tags incomes
// @Accept json
// @Produce json
// @Param id path string true "Income ID"
// @Param income body dto.UpdateIncomeRequest true "Fields to update"
// @Success 200 {object} dto.IncomeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes/{id} [put]
func (h *incomeHandler) updateIncome(c *gin.Context) {
	var req dto.UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	income, err := h.incomeService.UpdateIncome(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update income")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomeResponse(income))
}

// deleteIncome godoc
// @Summary Delete an income
// @Description Deletes a PENDING income. Approved incomes live in the ledger and can only be reversed.
// @Tags incomes
// @Produce json
// @Param id path string true "Income ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes/{id} [delete]
func (h *incomeHandler) deleteIncome(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.incomeService.DeleteIncome(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to delete income")
		return
	}

	c.Status(http.StatusNoContent)
}

// approveIncome godoc
// @Summary Approve an income
// @Description Approves a PENDING or REJECTED income exactly once, then attempts the ledger posting. A posting failure is reported in the response, not rolled back; the approval stands.
// @Tags incomes
// @Produce json
// @Param id path string true "Income ID"
// @Success 200 {object} dto.ApproveIncomeResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes/{id}/approve [post]
func (h *incomeHandler) approveIncome(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	income, posting, err := h.incomeService.ApproveIncome(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to approve income")
		return
	}

	c.JSON(http.StatusOK, dto.ApproveIncomeResponse{
		Income:  dto.ToIncomeResponse(income),
		Posting: dto.ToPostingResultResponse(posting),
	})
}

// rejectIncome godoc
// @Summary Reject an income
// @Description Rejects a PENDING income. A rejected income can still be approved later.
// @Tags incomes
// @Produce json
// @Param id path string true "Income ID"
// @Success 200 {object} dto.IncomeResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /incomes/{id}/reject [post]
func (h *incomeHandler) rejectIncome(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	income, err := h.incomeService.RejectIncome(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to reject income")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomeResponse(income))
}
