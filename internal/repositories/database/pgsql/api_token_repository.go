package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger_backend/internal/apperrors"
	"github.com/shopledger/shopledger_backend/internal/core/domain"
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
)

const (
	apiTokenTable  = "api_tokens"
	apiTokenFields = "token_id, user_id, name, token_hash, last_used_at, expires_at, revoked_at, created_at, created_by"

	queryCreateAPIToken = `INSERT INTO ` + apiTokenTable + ` (` + apiTokenFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	queryFindAPITokenByID = `SELECT ` + apiTokenFields + ` FROM ` + apiTokenTable + `
		WHERE token_id = $1;`

	queryFindAPITokensByUserID = `SELECT ` + apiTokenFields + ` FROM ` + apiTokenTable + `
		WHERE user_id = $1 ORDER BY created_at DESC;`

	queryFindAPITokenByHash = `SELECT ` + apiTokenFields + ` FROM ` + apiTokenTable + `
		WHERE token_hash = $1;`

	queryMarkAPITokenUsed = `UPDATE ` + apiTokenTable + ` SET last_used_at = $2
		WHERE token_id = $1;`

	queryRevokeAPIToken = `UPDATE ` + apiTokenTable + ` SET revoked_at = $2
		WHERE token_id = $1 AND revoked_at IS NULL;`

	queryDeleteExpiredAPITokens = `DELETE FROM ` + apiTokenTable + `
		WHERE expires_at IS NOT NULL AND expires_at < $1;`
)

type PgxAPITokenRepository struct {
	pool *pgxpool.Pool
}

// newPgxAPITokenRepository creates a new PostgreSQL API token repository.
func newPgxAPITokenRepository(pool *pgxpool.Pool) portsrepo.APITokenRepository {
	return &PgxAPITokenRepository{pool: pool}
}

// Ensure PgxAPITokenRepository implements portsrepo.APITokenRepository
var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

func scanAPIToken(row pgx.Row) (*domain.APIToken, error) {
	var t domain.APIToken
	err := row.Scan(
		&t.TokenID,
		&t.UserID,
		&t.Name,
		&t.TokenHash,
		&t.LastUsedAt,
		&t.ExpiresAt,
		&t.RevokedAt,
		&t.CreatedAt,
		&t.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persists a new API token.
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	_, err := r.pool.Exec(ctx, queryCreateAPIToken,
		token.TokenID,
		token.UserID,
		token.Name,
		token.TokenHash,
		token.LastUsedAt,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
		token.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create API token %s: %w", token.TokenID, err)
	}
	return nil
}

// FindByID retrieves an API token by its ID.
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, tokenID string) (*domain.APIToken, error) {
	t, err := scanAPIToken(r.pool.QueryRow(ctx, queryFindAPITokenByID, tokenID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: API token %s", apperrors.ErrNotFound, tokenID)
		}
		return nil, fmt.Errorf("failed to find API token by ID %s: %w", tokenID, err)
	}
	return t, nil
}

// FindByUserID retrieves all API tokens for a user, newest first.
func (r *PgxAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error) {
	rows, err := r.pool.Query(ctx, queryFindAPITokensByUserID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query API tokens for user %s: %w", userID, err)
	}
	defer rows.Close()

	tokens := []domain.APIToken{}
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API token row: %w", err)
		}
		tokens = append(tokens, *t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating API token rows: %w", rows.Err())
	}
	return tokens, nil
}

// FindByTokenHash finds a token by the hash of its secret. Revoked and
// expired tokens are still returned; usability is the caller's check.
func (r *PgxAPITokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.APIToken, error) {
	t, err := scanAPIToken(r.pool.QueryRow(ctx, queryFindAPITokenByHash, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: API token", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find API token by hash: %w", err)
	}
	return t, nil
}

// MarkUsed stamps last_used_at for the token.
func (r *PgxAPITokenRepository) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, queryMarkAPITokenUsed, tokenID, usedAt)
	if err != nil {
		return fmt.Errorf("failed to mark API token %s used: %w", tokenID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: API token %s", apperrors.ErrNotFound, tokenID)
	}
	return nil
}

// Revoke marks a token revoked. Revoking an already revoked token is a no-op.
func (r *PgxAPITokenRepository) Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, queryRevokeAPIToken, tokenID, revokedAt)
	if err != nil {
		return fmt.Errorf("failed to revoke API token %s: %w", tokenID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindByID(ctx, tokenID); findErr != nil {
			return findErr
		}
		return nil
	}
	return nil
}

// DeleteExpired removes tokens that expired before the given time.
func (r *PgxAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx, queryDeleteExpiredAPITokens, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired API tokens: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
