// Package repositories implements the data access layer for the account-
// identity service. Each repository type encapsulates all database queries
// for a domain entity; handlers and the accounts service never issue SQL
// directly, which keeps query logic testable in isolation.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/db/models"
)

// UserRepository handles user reads and writes.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new registry account.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (id, login, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Login,
		user.Name,
		user.Email,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when no row matches.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, login, name, email, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByLogin retrieves a user by login handle.
func (r *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `
		SELECT id, login, name, email, created_at, updated_at
		FROM users
		WHERE login = $1
	`

	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, login)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserWithEmail retrieves a user joined with their verification record.
// The LEFT JOIN means users without an Email row still produce a result; the
// email columns come back NULL in that case. Returns (nil, nil) when the
// user itself does not exist.
func (r *UserRepository) GetUserWithEmail(ctx context.Context, userID string) (*models.UserWithEmail, error) {
	query := `
		SELECT u.id, u.login, u.name, u.email, u.created_at, u.updated_at,
		       e.email AS email_address,
		       e.verified AS email_verified,
		       e.token_generated_at
		FROM users u
		LEFT JOIN emails e ON e.user_id = u.id
		WHERE u.id = $1
	`

	row := &models.UserWithEmail{}
	err := r.db.GetContext(ctx, row, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return row, nil
}
