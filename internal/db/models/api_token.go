package models

import (
	"database/sql"
	"time"
)

// APIToken is a long-lived registry credential. Only the bcrypt hash of the
// full token is stored; DisplayPrefix (the first few characters of the raw
// token) narrows the candidate set on lookup so validation does not bcrypt-
// compare against every row.
type APIToken struct {
	ID            string       `db:"id"`
	UserID        string       `db:"user_id"`
	Name          string       `db:"name"`
	TokenHash     string       `db:"token_hash"`
	DisplayPrefix string       `db:"display_prefix"`
	CreatedAt     time.Time    `db:"created_at"`
	LastUsedAt    sql.NullTime `db:"last_used_at"`
}
