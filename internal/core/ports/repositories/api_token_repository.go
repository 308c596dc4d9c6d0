package repositories

import (
	"context"
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// APITokenRepository defines data access for terminal API keys
type APITokenRepository interface {
	// Create persists a new API token
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID
	FindByID(ctx context.Context, tokenID string) (*domain.APIToken, error)

	// FindByUserID retrieves all API tokens for a specific user
	FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error)

	// FindByTokenHash finds a token by the hash of its secret (used for authentication)
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.APIToken, error)

	// MarkUsed stamps last_used_at for the token
	MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error

	// Revoke marks a token revoked; revoked tokens stop authenticating immediately
	Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error

	// DeleteExpired removes tokens that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
