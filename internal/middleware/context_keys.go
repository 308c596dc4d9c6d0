package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// contextKey is a private type for request context keys. Using a custom type
// prevents collisions with other packages.
type contextKey string

const (
	userIDKey   = contextKey("userID")
	userRoleKey = contextKey("userRole")

	// authMethodKey marks how the request authenticated ("api_token" or
	// "jwt") so the JWT middleware can skip requests an API key already
	// authenticated.
	authMethodKey = "authMethod"
)

// withIdentity stores the authenticated user's ID and role in the request
// context.
func withIdentity(ctx context.Context, userID string, role domain.UserRole) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

// GetUserIDFromContext retrieves the authenticated user ID set by the auth
// middleware. The boolean reports whether an ID was present.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if v := c.Request.Context().Value(userIDKey); v != nil {
		if userID, ok := v.(string); ok {
			return userID, true
		}
	}
	return "", false
}

// GetUserRoleFromContext retrieves the authenticated user's role set by the
// auth middleware.
func GetUserRoleFromContext(c *gin.Context) (domain.UserRole, bool) {
	if v := c.Request.Context().Value(userRoleKey); v != nil {
		if role, ok := v.(domain.UserRole); ok {
			return role, true
		}
	}
	return "", false
}
