// Package account implements the HTTP handlers for the account-identity
// endpoints: profile, update feed, email change/confirm/resend, and
// notification-preference sync. Handlers translate between the wire types
// below and the accounts service; all business rules live in the service.
package account

import "time"

// UpdateUserRequest is the body of PUT /api/v1/users/:user_id. The nested
// shape mirrors the profile representation clients already hold.
type UpdateUserRequest struct {
	User UserUpdate `json:"user"`
}

// UserUpdate carries the fields a user may change. Email is a pointer so an
// absent field is distinguishable from an empty string; both are rejected.
type UserUpdate struct {
	Email *string `json:"email"`
}

// NotificationPreference is one element of the PUT /api/v1/me/email_notifications
// payload: a package and the desired flag for it.
type NotificationPreference struct {
	ID                 string `json:"id" binding:"required"`
	EmailNotifications bool   `json:"email_notifications"`
}

// OkResponse acknowledges a mutation. No user-identifying data is echoed.
type OkResponse struct {
	OK bool `json:"ok"`
}

// EncodableUser is the private profile representation of an account.
type EncodableUser struct {
	ID               string `json:"id"`
	Login            string `json:"login"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	EmailVerified    bool   `json:"email_verified"`
	VerificationSent bool   `json:"email_verification_sent"`
}

// OwnedPackage annotates a package the user owns with their notification flag.
type OwnedPackage struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	EmailNotifications bool   `json:"email_notifications"`
}

// MeResponse is the body of GET /api/v1/me.
type MeResponse struct {
	User          EncodableUser  `json:"user"`
	OwnedPackages []OwnedPackage `json:"owned_packages"`
}

// EncodableVersion is one feed entry in GET /api/v1/me/updates.
type EncodableVersion struct {
	ID          string    `json:"id"`
	PackageName string    `json:"package_name"`
	Num         string    `json:"num"`
	PublishedBy *string   `json:"published_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdatesMeta carries feed pagination state.
type UpdatesMeta struct {
	More bool `json:"more"`
}

// UpdatesResponse is the body of GET /api/v1/me/updates.
type UpdatesResponse struct {
	Versions []EncodableVersion `json:"versions"`
	Meta     UpdatesMeta        `json:"meta"`
}
