package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/utils"
)

// apiTokenPrefix marks terminal keys so they are recognizable in config
// files and logs without revealing the secret.
const apiTokenPrefix = "slt_"

// apiTokenService implements the APITokenSvc interface.
type apiTokenService struct {
	BaseService
	tokenRepo portsrepo.APITokenRepository
	userSvc   portssvc.UserSvcFacade
}

// NewAPITokenService creates a new API token service instance.
func NewAPITokenService(tokenRepo portsrepo.APITokenRepository, userSvc portssvc.UserSvcFacade) portssvc.APITokenSvc {
	return &apiTokenService{
		tokenRepo: tokenRepo,
		userSvc:   userSvc,
	}
}

var _ portssvc.APITokenSvc = (*apiTokenService)(nil)

// CreateToken generates a new API token for the user. The plaintext is
// returned exactly once; only its SHA-256 hash is stored.
func (s *apiTokenService) CreateToken(ctx context.Context, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	if name == "" {
		return "", nil, fmt.Errorf("%w: token name is required", apperrors.ErrValidation)
	}
	user, err := s.userSvc.GetUserByID(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: user %s is inactive", apperrors.ErrValidation, userID)
	}

	secret, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	plaintext := apiTokenPrefix + secret

	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := time.Now().UTC().Add(*expiresIn)
		expiresAt = &expiry
	}

	token := &domain.APIToken{
		TokenID:   uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: utils.HashRefreshToken(plaintext),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
		CreatedBy: userID,
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		s.LogError(ctx, err, "Failed to save API token", "user_id", userID)
		return "", nil, fmt.Errorf("failed to save API token: %w", err)
	}

	s.LogInfo(ctx, "API token created", "token_id", token.TokenID, "user_id", userID, "name", name)
	return plaintext, token, nil
}

// ListTokens returns all API tokens for a user.
func (s *apiTokenService) ListTokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	tokens, err := s.tokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API tokens: %w", err)
	}
	return tokens, nil
}

// RevokeToken revokes a specific API token for a user. A token belonging
// to a different user comes back as not found so token IDs do not leak.
func (s *apiTokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to find API token %s: %w", tokenID, err)
	}
	if token.UserID != userID {
		return fmt.Errorf("%w: API token %s", apperrors.ErrNotFound, tokenID)
	}

	if err := s.tokenRepo.Revoke(ctx, tokenID, time.Now().UTC()); err != nil {
		s.LogError(ctx, err, "Failed to revoke API token", "token_id", tokenID)
		return fmt.Errorf("failed to revoke API token: %w", err)
	}

	s.LogInfo(ctx, "API token revoked", "token_id", tokenID, "user_id", userID)
	return nil
}

// ValidateToken checks a presented token and returns the owning user.
// Usable tokens get their last-used timestamp bumped best-effort.
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, apperrors.ErrUnauthorized
	}

	token, err := s.tokenRepo.FindByTokenHash(ctx, utils.HashRefreshToken(tokenString))
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !token.IsUsable() {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.userSvc.GetUserByID(ctx, token.UserID)
	if err != nil || !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}

	if err := s.tokenRepo.MarkUsed(ctx, token.TokenID, time.Now().UTC()); err != nil {
		s.LogWarn(ctx, "Failed to stamp API token usage", "token_id", token.TokenID)
	}

	return user, nil
}

// PurgeExpiredTokens deletes tokens that expired before the cutoff.
func (s *apiTokenService) PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.tokenRepo.DeleteExpired(ctx, before)
	if err != nil {
		s.LogError(ctx, err, "Failed to purge expired API tokens")
		return 0, fmt.Errorf("failed to purge expired API tokens: %w", err)
	}
	if deleted > 0 {
		s.LogInfo(ctx, "Expired API tokens purged", "count", deleted)
	}
	return deleted, nil
}
