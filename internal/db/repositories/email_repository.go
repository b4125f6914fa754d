// email_repository.go implements the storage side of the email verification
// state machine: the user-keyed upsert that replaces an address, the
// confirm-by-token update, and token regeneration for resends.
package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/db/models"
)

// EmailRepository handles email verification records.
type EmailRepository struct {
	db *sqlx.DB
}

// NewEmailRepository creates a new EmailRepository.
func NewEmailRepository(db *sqlx.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

// ChangeEmail atomically overwrites the user's denormalized address and
// upserts the verification record with the supplied fresh token, forcing
// verified back to false. The conflict target is the unique user_id, so two
// concurrent changes for the same user cannot duplicate rows: the second
// writer updates the row the first one inserted, and the last committed
// write wins.
func (r *EmailRepository) ChangeEmail(ctx context.Context, userID, address, token string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1`,
		userID, address,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO emails (user_id, email, token, token_generated_at, verified)
		VALUES ($1, $2, $3, NOW(), FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    token = EXCLUDED.token,
		    token_generated_at = EXCLUDED.token_generated_at,
		    verified = FALSE
	`, userID, address, token)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ConfirmByToken marks the record matching token as verified. Confirming an
// already-verified record succeeds again: the update only asserts a fact
// that is already true. Returns false when no record matches.
func (r *EmailRepository) ConfirmByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE emails SET verified = TRUE WHERE token = $1`,
		token,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// RegenerateToken replaces the token on the user's existing verification
// record and returns the updated record. Returns (nil, nil) when the user
// has no record; a resend never creates one implicitly. The rotation commits
// before any delivery attempt, so a failed send still leaves the new token
// in place.
func (r *EmailRepository) RegenerateToken(ctx context.Context, userID, token string) (*models.Email, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	email := &models.Email{}
	err = tx.QueryRowxContext(ctx, `
		UPDATE emails
		SET token = $2, token_generated_at = NOW()
		WHERE user_id = $1
		RETURNING id, user_id, email, token, token_generated_at, verified
	`, userID, token).StructScan(email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return email, nil
}

// GetByUserID retrieves a user's verification record. Returns (nil, nil)
// when the user has none.
func (r *EmailRepository) GetByUserID(ctx context.Context, userID string) (*models.Email, error) {
	query := `
		SELECT id, user_id, email, token, token_generated_at, verified
		FROM emails
		WHERE user_id = $1
	`

	email := &models.Email{}
	err := r.db.GetContext(ctx, email, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return email, nil
}
