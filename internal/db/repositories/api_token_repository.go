// api_token_repository.go stores long-lived registry API tokens. Raw tokens
// are never persisted; lookups narrow by display prefix and the caller
// bcrypt-compares against the candidates.
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/db/models"
)

// APITokenRepository handles registry API token rows.
type APITokenRepository struct {
	db *sqlx.DB
}

// NewAPITokenRepository creates a new APITokenRepository.
func NewAPITokenRepository(db *sqlx.DB) *APITokenRepository {
	return &APITokenRepository{db: db}
}

// Create inserts a new API token record.
func (r *APITokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()

	query := `
		INSERT INTO api_tokens (id, user_id, name, token_hash, display_prefix, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Name,
		token.TokenHash,
		token.DisplayPrefix,
		token.CreatedAt,
	)

	return err
}

// FindByDisplayPrefix returns all token records sharing a display prefix.
// Prefix collisions are possible, so callers compare the presented token
// against every candidate hash.
func (r *APITokenRepository) FindByDisplayPrefix(ctx context.Context, prefix string) ([]*models.APIToken, error) {
	query := `
		SELECT id, user_id, name, token_hash, display_prefix, created_at, last_used_at
		FROM api_tokens
		WHERE display_prefix = $1
	`

	tokens := make([]*models.APIToken, 0)
	if err := r.db.SelectContext(ctx, &tokens, query, prefix); err != nil {
		return nil, err
	}

	return tokens, nil
}

// TouchLastUsed records that a token was just used for authentication.
func (r *APITokenRepository) TouchLastUsed(ctx context.Context, tokenID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`,
		tokenID,
	)
	return err
}

// DeleteByID removes a token.
func (r *APITokenRepository) DeleteByID(ctx context.Context, tokenID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = $1`, tokenID)
	return err
}
