package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/dto"
)

type apiTokenHandler struct {
	tokenService portssvc.APITokenSvc
}

func newAPITokenHandler(tokenService portssvc.APITokenSvc) *apiTokenHandler {
	return &apiTokenHandler{tokenService: tokenService}
}

// RegisterAPITokenRoutes sets up the API token management routes. Tokens are
// personal; every operation is scoped to the authenticated user.
func RegisterAPITokenRoutes(rg *gin.RouterGroup, tokenService portssvc.APITokenSvc) {
	h := newAPITokenHandler(tokenService)

	tokens := rg.Group("/tokens")
	{
		tokens.POST("", h.createToken)
		tokens.GET("", h.listTokens)
		tokens.DELETE("/:id", h.revokeToken)
	}
}

// createToken godoc
// @Summary Create an API token
// @Description Creates a personal API token for machine access. The raw token is returned exactly once.
// @Tags api-tokens
// @Accept json
// @Produce json
// @Param token body dto.CreateAPITokenRequest true "Token details"
// @Success 201 {object} dto.CreateAPITokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /tokens [post]
func (h *apiTokenHandler) createToken(c *gin.Context) {
	var req dto.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tokenStr, token, err := h.tokenService.CreateToken(c.Request.Context(), userID, req.Name, req.ExpiresIn)
	if err != nil {
		respondError(c, err, "Failed to create API token")
		return
	}

	c.JSON(http.StatusCreated, dto.ToCreateAPITokenResponse(tokenStr, *token))
}

// listTokens godoc
// @Summary List API tokens
// @Description Retrieves the authenticated user's API tokens. Raw token strings are never returned here.
// @Tags api-tokens
// @Produce json
// @Success 200 {array} dto.APITokenResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /tokens [get]
func (h *apiTokenHandler) listTokens(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list API tokens")
		return
	}

	c.JSON(http.StatusOK, dto.ToAPITokenResponseList(tokens))
}

// revokeToken godoc
// @Summary Revoke an API token
// @Description Revokes one of the authenticated user's API tokens. Revocation is permanent.
// @Tags api-tokens
// @Produce json
// @Param id path string true "Token ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /tokens/{id} [delete]
func (h *apiTokenHandler) revokeToken(c *gin.Context) {
	tokenID := c.Param("id")
	if _, err := uuid.Parse(tokenID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid token ID"})
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.tokenService.RevokeToken(c.Request.Context(), userID, tokenID); err != nil {
		respondError(c, err, "Failed to revoke API token")
		return
	}

	c.Status(http.StatusNoContent)
}
