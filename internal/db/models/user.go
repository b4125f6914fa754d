// Package models defines the database entities for the package registry's
// account-identity service: users, their email verification records, package
// ownership rows, follows, and published versions.
package models

import (
	"database/sql"
	"time"
)

// User represents a registry account.
// Email is a denormalized copy of the address shown on the profile; the
// authoritative verification state lives in the Email record.
type User struct {
	ID        string    `db:"id" json:"id"`
	Login     string    `db:"login" json:"login"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserWithEmail is the users LEFT JOIN emails row used to assemble a profile.
// The email columns are nullable because a user may never have submitted an
// address.
type UserWithEmail struct {
	User
	EmailAddress     sql.NullString `db:"email_address"`
	EmailVerified    sql.NullBool   `db:"email_verified"`
	TokenGeneratedAt sql.NullTime   `db:"token_generated_at"`
}
