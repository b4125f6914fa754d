package models

import "time"

// Email is a user's verification record. Each user has at most one row,
// enforced by the unique constraint on user_id. The token proves possession
// of the address that was current when the token was generated; any address
// change replaces the token and resets Verified.
type Email struct {
	ID               int64     `db:"id"`
	UserID           string    `db:"user_id"`
	Email            string    `db:"email"`
	Token            string    `db:"token"`
	TokenGeneratedAt time.Time `db:"token_generated_at"`
	Verified         bool      `db:"verified"`
}
