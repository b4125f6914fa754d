package models

// Follow relates a user to a package they track. Follows feed the
// personalized update feed; this service never mutates them.
type Follow struct {
	UserID    string `db:"user_id"`
	PackageID string `db:"package_id"`
}
