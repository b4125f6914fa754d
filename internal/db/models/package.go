package models

import "time"

// Owner kinds discriminate who holds a package_owners row. The preference
// synchronizer only ever touches OwnerKindUser rows; team rows are managed
// elsewhere.
const (
	OwnerKindUser = 0
	OwnerKindTeam = 1
)

// Package represents a published package in the registry.
type Package struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PackageOwner relates a package to an owning principal and carries that
// owner's email-notification preference. Uniqueness is on
// (package_id, owner_id, owner_kind).
type PackageOwner struct {
	PackageID          string `db:"package_id"`
	OwnerID            string `db:"owner_id"`
	OwnerKind          int    `db:"owner_kind"`
	EmailNotifications bool   `db:"email_notifications"`
}

// OwnedPackage is the package_owners JOIN packages row shown on a profile.
type OwnedPackage struct {
	ID                 string `db:"id" json:"id"`
	Name               string `db:"name" json:"name"`
	EmailNotifications bool   `db:"email_notifications" json:"email_notifications"`
}
