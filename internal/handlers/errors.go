package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/middleware"
)

// ErrorResponse is the error body every handler returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps a service error onto an HTTP status. Client-caused
// errors carry the service's message; anything unrecognized becomes a 500
// with the generic fallback so internals never leak.
func respondError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrUnbalanced),
		errors.Is(err, apperrors.ErrAccountInactive):
		logger.Warn("Request rejected", "error", err.Error())
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", "error", err.Error())
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrAlreadyCompleted),
		errors.Is(err, apperrors.ErrInvalidTransition):
		logger.Warn("Conflicting state", "error", err.Error())
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInsufficientStock):
		logger.Warn("Business rule rejected request", "error", err.Error())
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})

	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrRefreshTokenExpired):
		logger.Warn("Unauthorized request", "error", err.Error())
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})

	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})

	default:
		logger.Error("Request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// requireUserID pulls the authenticated user ID out of the context, ending
// the request with a 401 when it is missing.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}
	return userID, ok
}
