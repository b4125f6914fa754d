package models

import (
	"database/sql"
	"time"
)

// Version is an immutable published package version. Rows are only read by
// this service; publishing happens elsewhere.
type Version struct {
	ID          string         `db:"id"`
	PackageID   string         `db:"package_id"`
	Num         string         `db:"num"`
	PublishedBy sql.NullString `db:"published_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

// FeedEntry is a version joined with its package name and, when known, the
// login of the user who published it. It is the row shape of the update feed.
type FeedEntry struct {
	Version
	PackageName      string         `db:"package_name"`
	PublishedByLogin sql.NullString `db:"published_by_login"`
}
