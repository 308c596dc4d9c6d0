package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

type saleHandler struct {
	saleService portssvc.SaleSvcFacade
}

func newSaleHandler(saleService portssvc.SaleSvcFacade) *saleHandler {
	return &saleHandler{saleService: saleService}
}

// registerSaleRoutes sets up the point-of-sale routes. All of them are
// cashier level; a till operator must be able to ring up a sale.
func registerSaleRoutes(rg *gin.RouterGroup, saleService portssvc.SaleSvcFacade) {
	h := newSaleHandler(saleService)

	sales := rg.Group("/sales")
	{
		sales.GET("", h.listSales)
		sales.POST("", h.createSale)
		sales.GET("/:id", h.getSale)
		sales.POST("/:id/payments", h.addSalePayment)
	}
}

// listSales godoc
// @Summary List sales
// @Description Retrieves sales newest first with cursor pagination, optionally filtered by customer, payment status and date range.
// @Tags sales
// @Produce json
// @Param customerID query string false "Filter by customer"
// @Param paymentStatus query string false "Filter by payment status" Enums(UNPAID, PARTIAL, PAID)
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListSalesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales [get]
func (h *saleHandler) listSales(c *gin.Context) {
	var params dto.ListSalesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list sales")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// createSale godoc
// @Summary Create a sale
// @Description Records a sale atomically: stock is decremented, wallet payments are debited and the invoice is written in one transaction. The revenue posting is then attempted; a posting failure is reported in the response, never undoes the sale.
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body dto.CreateSaleRequest true "Sale details"
// @Success 201 {object} dto.CreateSaleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales [post]
func (h *saleHandler) createSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	detail, posting, err := h.saleService.CreateSale(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create sale")
		return
	}

	c.JSON(http.StatusCreated, dto.CreateSaleResponse{
		Sale:    *detail,
		Posting: dto.ToPostingResultResponse(posting),
	})
}

// getSale godoc
// @Summary Get a sale
// @Description Retrieves a sale together with its line items and payments.
// @Tags sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} dto.SaleDetailResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales/{id} [get]
func (h *saleHandler) getSale(c *gin.Context) {
	detail, err := h.saleService.GetSaleByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get sale")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// addSalePayment godoc
// @Summary Add a payment to a sale
// @Description Settles part or all of a sale's outstanding amount. Fully paid sales reject further payments, and a payment may not exceed what is outstanding.
// @Tags sales
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param payment body dto.AddSalePaymentRequest true "Payment details"
// @Success 200 {object} dto.AddSalePaymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales/{id}/payments [post]
func (h *saleHandler) addSalePayment(c *gin.Context) {
	var req dto.AddSalePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sale, posting, err := h.saleService.AddSalePayment(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to add payment")
		return
	}

	c.JSON(http.StatusOK, dto.AddSalePaymentResponse{
		Sale:    dto.ToSaleResponse(sale),
		Posting: dto.ToPostingResultResponse(posting),
	})
}
