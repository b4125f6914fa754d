package accounts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/package-registry/package-registry/internal/auth"
	"github.com/package-registry/package-registry/internal/db/models"
	"github.com/package-registry/package-registry/internal/safego"
	"github.com/package-registry/package-registry/internal/telemetry"
	"github.com/package-registry/package-registry/internal/validation"
)

// Identity is the authenticated principal attached to a request. It is an
// explicit parameter on every operation rather than ambient request state so
// tests can supply it directly.
type Identity struct {
	UserID string
	Login  string
}

// UserStore is the slice of user storage the service needs.
type UserStore interface {
	GetUserWithEmail(ctx context.Context, userID string) (*models.UserWithEmail, error)
}

// EmailStore is the storage side of the verification state machine.
type EmailStore interface {
	ChangeEmail(ctx context.Context, userID, address, token string) error
	ConfirmByToken(ctx context.Context, token string) (bool, error)
	RegenerateToken(ctx context.Context, userID, token string) (*models.Email, error)
}

// OwnershipStore reads and upserts package ownership rows.
type OwnershipStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.PackageOwner, error)
	ListOwnedPackages(ctx context.Context, userID string) ([]models.OwnedPackage, error)
	UpsertNotificationPreferences(ctx context.Context, rows []models.PackageOwner) error
}

// FeedStore reads one page of a user's update feed.
type FeedStore interface {
	Page(ctx context.Context, userID string, limit, offset int) ([]models.FeedEntry, bool, error)
}

// Mailer delivers confirmation notifications. Delivery is best-effort for
// email changes and failure-propagating for resends; the service decides
// which, not the mailer.
type Mailer interface {
	SendConfirmation(address, login, token string) error
}

// Service implements the account-identity operations over the stores.
type Service struct {
	users  UserStore
	emails EmailStore
	owners OwnershipStore
	feed   FeedStore
	mailer Mailer
}

// NewService creates an account Service.
func NewService(users UserStore, emails EmailStore, owners OwnershipStore, feed FeedStore, mailer Mailer) *Service {
	return &Service{
		users:  users,
		emails: emails,
		owners: owners,
		feed:   feed,
		mailer: mailer,
	}
}

// ChangeEmail replaces the target user's address, resetting verification and
// issuing a fresh token, then dispatches the confirmation mail in the
// background. The state change is the durable fact; a failed send is logged
// and the user can recover via ResendConfirmation.
func (s *Service) ChangeEmail(ctx context.Context, ident Identity, targetUserID, newAddress string) error {
	address := strings.TrimSpace(newAddress)
	if address == "" {
		return &ValidationError{Msg: "empty email rejected"}
	}
	if ident.UserID != targetUserID {
		return &AuthorizationError{Msg: "current user does not match requested user"}
	}

	token, err := auth.GenerateConfirmationToken()
	if err != nil {
		return &TransientStoreError{Msg: "could not generate confirmation token", Err: err}
	}

	if err := s.emails.ChangeEmail(ctx, targetUserID, address, token); err != nil {
		return storeErr(err)
	}

	// Dispatch only after the transaction committed so the mail can never
	// reference state that rolled back.
	login := ident.Login
	safego.Go(func() {
		if err := s.mailer.SendConfirmation(address, login, token); err != nil {
			telemetry.ConfirmationEmailsTotal.WithLabelValues("failed").Inc()
			slog.Warn("confirmation email dispatch failed", "login", login, "error", err)
			return
		}
		telemetry.ConfirmationEmailsTotal.WithLabelValues("sent").Inc()
	})

	return nil
}

// ConfirmEmail flips the record matching token to verified. It is
// idempotent, and an unknown token yields the same NotFoundError regardless
// of whether any account exists.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	found, err := s.emails.ConfirmByToken(ctx, token)
	if err != nil {
		return storeErr(err)
	}
	if !found {
		return &NotFoundError{Msg: "token not found"}
	}
	return nil
}

// ResendConfirmation rotates the token on the user's existing email record
// and delivers a new confirmation mail. The rotation commits before the send
// is attempted, so a delivery failure is reported to the caller while the
// new token stays in place.
func (s *Service) ResendConfirmation(ctx context.Context, ident Identity, targetUserID string) error {
	if ident.UserID != targetUserID {
		return &AuthorizationError{Msg: "current user does not match requested user"}
	}

	token, err := auth.GenerateConfirmationToken()
	if err != nil {
		return &TransientStoreError{Msg: "could not generate confirmation token", Err: err}
	}

	email, err := s.emails.RegenerateToken(ctx, targetUserID, token)
	if err != nil {
		return storeErr(err)
	}
	if email == nil {
		return &NotFoundError{Msg: "email could not be found"}
	}

	if err := s.mailer.SendConfirmation(email.Email, ident.Login, email.Token); err != nil {
		telemetry.ConfirmationEmailsTotal.WithLabelValues("failed").Inc()
		return &TransientStoreError{Msg: "error in sending confirmation email", Err: err}
	}
	telemetry.ConfirmationEmailsTotal.WithLabelValues("sent").Inc()

	return nil
}

// UpdateEmailNotifications reconciles a partial client patch against the
// user's current ownership rows and applies the result in one upsert.
func (s *Service) UpdateEmailNotifications(ctx context.Context, ident Identity, patch map[string]bool) error {
	current, err := s.owners.ListByUser(ctx, ident.UserID)
	if err != nil {
		return storeErr(err)
	}

	candidates := ReconcilePreferences(current, patch)
	if err := s.owners.UpsertNotificationPreferences(ctx, candidates); err != nil {
		return storeErr(err)
	}

	telemetry.PreferenceSyncsTotal.Inc()
	return nil
}

// Profile is the composed private view of an account.
type Profile struct {
	User             models.User
	Verified         bool
	VerificationSent bool
	OwnedPackages    []models.OwnedPackage
}

// GetProfile assembles the acting user's profile: identity joined with
// verification state plus the packages they own directly. VerificationSent
// means "a token has ever been issued", not that a delivery succeeded; no
// delivery-receipt signal exists in the data model.
func (s *Service) GetProfile(ctx context.Context, ident Identity) (*Profile, error) {
	row, err := s.users.GetUserWithEmail(ctx, ident.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if row == nil {
		return nil, &NotFoundError{Msg: "user not found"}
	}

	verified := row.EmailVerified.Valid && row.EmailVerified.Bool
	verificationSent := verified || row.TokenGeneratedAt.Valid

	user := row.User
	if row.EmailAddress.Valid {
		user.Email = row.EmailAddress.String
	} else {
		user.Email = ""
	}

	owned, err := s.owners.ListOwnedPackages(ctx, ident.UserID)
	if err != nil {
		return nil, storeErr(err)
	}

	return &Profile{
		User:             user,
		Verified:         verified,
		VerificationSent: verificationSent,
		OwnedPackages:    owned,
	}, nil
}

// FeedEntry is one published version in the update feed.
type FeedEntry struct {
	ID          string
	PackageName string
	Num         string
	PublishedBy *string
	CreatedAt   time.Time
}

// FeedPage is one page of the update feed plus whether another page exists.
type FeedPage struct {
	Versions []FeedEntry
	More     bool
}

// GetUpdateFeed returns one page of versions of the packages the user
// follows, newest first. Version numbers are normalized for display;
// non-semver strings pass through unchanged.
func (s *Service) GetUpdateFeed(ctx context.Context, ident Identity, limit, offset int) (*FeedPage, error) {
	rows, more, err := s.feed.Page(ctx, ident.UserID, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}

	entries := make([]FeedEntry, 0, len(rows))
	for _, row := range rows {
		entry := FeedEntry{
			ID:          row.Version.ID,
			PackageName: row.PackageName,
			Num:         validation.NormalizeVersion(row.Num),
			CreatedAt:   row.CreatedAt,
		}
		if row.PublishedByLogin.Valid {
			login := row.PublishedByLogin.String
			entry.PublishedBy = &login
		}
		entries = append(entries, entry)
	}

	return &FeedPage{Versions: entries, More: more}, nil
}
