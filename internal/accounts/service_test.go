package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/package-registry/package-registry/internal/db/models"
)

// ---------------------------------------------------------------------------
// in-memory fakes
// ---------------------------------------------------------------------------

type fakeUserStore struct {
	row *models.UserWithEmail
	err error
}

func (f *fakeUserStore) GetUserWithEmail(ctx context.Context, userID string) (*models.UserWithEmail, error) {
	return f.row, f.err
}

type fakeEmailStore struct {
	changed struct {
		userID, address, token string
	}
	changeErr error

	confirmFound bool
	confirmErr   error

	regenerated *models.Email
	regenErr    error
}

func (f *fakeEmailStore) ChangeEmail(ctx context.Context, userID, address, token string) error {
	f.changed.userID = userID
	f.changed.address = address
	f.changed.token = token
	return f.changeErr
}

func (f *fakeEmailStore) ConfirmByToken(ctx context.Context, token string) (bool, error) {
	return f.confirmFound, f.confirmErr
}

func (f *fakeEmailStore) RegenerateToken(ctx context.Context, userID, token string) (*models.Email, error) {
	if f.regenErr != nil {
		return nil, f.regenErr
	}
	if f.regenerated != nil {
		f.regenerated.Token = token
	}
	return f.regenerated, nil
}

type fakeOwnershipStore struct {
	rows     []models.PackageOwner
	owned    []models.OwnedPackage
	upserted []models.PackageOwner
	err      error
}

func (f *fakeOwnershipStore) ListByUser(ctx context.Context, userID string) ([]models.PackageOwner, error) {
	return f.rows, f.err
}

func (f *fakeOwnershipStore) ListOwnedPackages(ctx context.Context, userID string) ([]models.OwnedPackage, error) {
	return f.owned, f.err
}

func (f *fakeOwnershipStore) UpsertNotificationPreferences(ctx context.Context, rows []models.PackageOwner) error {
	f.upserted = rows
	return f.err
}

type fakeFeedStore struct {
	entries []models.FeedEntry
	more    bool
	err     error
}

func (f *fakeFeedStore) Page(ctx context.Context, userID string, limit, offset int) ([]models.FeedEntry, bool, error) {
	return f.entries, f.more, f.err
}

// fakeMailer signals every send on a channel so tests can wait for the
// fire-and-forget dispatch without racing it.
type fakeMailer struct {
	sends chan [3]string
	err   error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sends: make(chan [3]string, 4)}
}

func (f *fakeMailer) SendConfirmation(address, login, token string) error {
	f.sends <- [3]string{address, login, token}
	return f.err
}

func (f *fakeMailer) waitForSend(t *testing.T) [3]string {
	t.Helper()
	select {
	case sent := <-f.sends:
		return sent
	case <-time.After(2 * time.Second):
		t.Fatal("no confirmation email dispatched within timeout")
		return [3]string{}
	}
}

func newTestService(users *fakeUserStore, emails *fakeEmailStore, owners *fakeOwnershipStore, feed *fakeFeedStore, mailer Mailer) *Service {
	if users == nil {
		users = &fakeUserStore{}
	}
	if emails == nil {
		emails = &fakeEmailStore{}
	}
	if owners == nil {
		owners = &fakeOwnershipStore{}
	}
	if feed == nil {
		feed = &fakeFeedStore{}
	}
	if mailer == nil {
		mailer = newFakeMailer()
	}
	return NewService(users, emails, owners, feed, mailer)
}

var ident = Identity{UserID: "user-1", Login: "alice"}

// ---------------------------------------------------------------------------
// ChangeEmail
// ---------------------------------------------------------------------------

func TestChangeEmail_RejectsEmptyAddress(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, nil)

	for _, input := range []string{"", "   ", "\t\n"} {
		err := svc.ChangeEmail(context.Background(), ident, "user-1", input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ChangeEmail(%q) error = %v, want ValidationError", input, err)
		}
	}
}

func TestChangeEmail_RejectsIdentityMismatch(t *testing.T) {
	emails := &fakeEmailStore{}
	svc := newTestService(nil, emails, nil, nil, nil)

	err := svc.ChangeEmail(context.Background(), ident, "user-2", "new@example.com")
	var aErr *AuthorizationError
	if !errors.As(err, &aErr) {
		t.Fatalf("error = %v, want AuthorizationError", err)
	}
	if emails.changed.userID != "" {
		t.Error("store must not be touched on authorization failure")
	}
}

func TestChangeEmail_PersistsAndDispatches(t *testing.T) {
	emails := &fakeEmailStore{}
	mailer := newFakeMailer()
	svc := newTestService(nil, emails, nil, nil, mailer)

	if err := svc.ChangeEmail(context.Background(), ident, "user-1", "  new@example.com "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emails.changed.address != "new@example.com" {
		t.Errorf("stored address = %q, want trimmed input", emails.changed.address)
	}
	if emails.changed.token == "" {
		t.Error("expected a fresh token to be generated")
	}

	sent := mailer.waitForSend(t)
	if sent[0] != "new@example.com" || sent[1] != "alice" || sent[2] != emails.changed.token {
		t.Errorf("dispatched %v, want address/login/token of the committed change", sent)
	}
}

func TestChangeEmail_DispatchFailureIsNotAnError(t *testing.T) {
	mailer := newFakeMailer()
	mailer.err = errors.New("smtp down")
	svc := newTestService(nil, &fakeEmailStore{}, nil, nil, mailer)

	if err := svc.ChangeEmail(context.Background(), ident, "user-1", "new@example.com"); err != nil {
		t.Fatalf("dispatch failure must not fail the operation, got %v", err)
	}
	mailer.waitForSend(t)
}

func TestChangeEmail_StoreFailureSurfacesAndNothingIsSent(t *testing.T) {
	emails := &fakeEmailStore{changeErr: errors.New("connection reset")}
	mailer := newFakeMailer()
	svc := newTestService(nil, emails, nil, nil, mailer)

	err := svc.ChangeEmail(context.Background(), ident, "user-1", "new@example.com")
	var sErr *TransientStoreError
	if !errors.As(err, &sErr) {
		t.Fatalf("error = %v, want TransientStoreError", err)
	}

	select {
	case sent := <-mailer.sends:
		t.Errorf("no mail should go out when the transaction failed, got %v", sent)
	case <-time.After(100 * time.Millisecond):
	}
}

// ---------------------------------------------------------------------------
// ConfirmEmail
// ---------------------------------------------------------------------------

func TestConfirmEmail_Idempotent(t *testing.T) {
	emails := &fakeEmailStore{confirmFound: true}
	svc := newTestService(nil, emails, nil, nil, nil)

	for i := 0; i < 2; i++ {
		if err := svc.ConfirmEmail(context.Background(), "tok-123"); err != nil {
			t.Fatalf("confirm attempt %d: unexpected error %v", i+1, err)
		}
	}
}

func TestConfirmEmail_UnknownTokenIsNotFound(t *testing.T) {
	emails := &fakeEmailStore{confirmFound: false}
	svc := newTestService(nil, emails, nil, nil, nil)

	err := svc.ConfirmEmail(context.Background(), "garbled")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	// The message must not depend on whether any account exists.
	if nfErr.Msg != "token not found" {
		t.Errorf("message = %q, want the fixed token-not-found text", nfErr.Msg)
	}
}

// ---------------------------------------------------------------------------
// ResendConfirmation
// ---------------------------------------------------------------------------

func TestResendConfirmation_RotatesAndSends(t *testing.T) {
	emails := &fakeEmailStore{
		regenerated: &models.Email{UserID: "user-1", Email: "old@example.com"},
	}
	mailer := newFakeMailer()
	svc := newTestService(nil, emails, nil, nil, mailer)

	if err := svc.ResendConfirmation(context.Background(), ident, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := mailer.waitForSend(t)
	if sent[0] != "old@example.com" {
		t.Errorf("sent to %q, want the stored address", sent[0])
	}
	if sent[2] == "" || sent[2] != emails.regenerated.Token {
		t.Errorf("sent token %q, want the freshly rotated one", sent[2])
	}
}

func TestResendConfirmation_NoEmailRowIsNotFoundAndNoSend(t *testing.T) {
	mailer := newFakeMailer()
	svc := newTestService(nil, &fakeEmailStore{regenerated: nil}, nil, nil, mailer)

	err := svc.ResendConfirmation(context.Background(), ident, "user-1")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if len(mailer.sends) != 0 {
		t.Error("no notification may be issued when the user has no email row")
	}
}

func TestResendConfirmation_SendFailurePropagates(t *testing.T) {
	emails := &fakeEmailStore{
		regenerated: &models.Email{UserID: "user-1", Email: "old@example.com"},
	}
	mailer := newFakeMailer()
	mailer.err = errors.New("smtp down")
	svc := newTestService(nil, emails, nil, nil, mailer)

	err := svc.ResendConfirmation(context.Background(), ident, "user-1")
	if err == nil {
		t.Fatal("send failure must surface to the caller on resend")
	}
	// The rotation itself happened before the send attempt.
	if emails.regenerated.Token == "" {
		t.Error("token rotation must have committed despite the failed send")
	}
}

func TestResendConfirmation_RejectsIdentityMismatch(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, nil)

	err := svc.ResendConfirmation(context.Background(), ident, "user-2")
	var aErr *AuthorizationError
	if !errors.As(err, &aErr) {
		t.Fatalf("error = %v, want AuthorizationError", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateEmailNotifications
// ---------------------------------------------------------------------------

func TestUpdateEmailNotifications_AppliesReconciledCandidates(t *testing.T) {
	owners := &fakeOwnershipStore{rows: []models.PackageOwner{
		ownerRow("pkg-a", true),
		ownerRow("pkg-b", false),
	}}
	svc := newTestService(nil, nil, owners, nil, nil)

	err := svc.UpdateEmailNotifications(context.Background(), ident, map[string]bool{
		"pkg-a":       false,
		"pkg-unowned": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(owners.upserted) != 2 {
		t.Fatalf("upserted %d rows, want 2", len(owners.upserted))
	}
	if owners.upserted[0].EmailNotifications != false {
		t.Error("pkg-a must take the patched value")
	}
	if owners.upserted[1].EmailNotifications != false {
		t.Error("pkg-b must keep its current value")
	}
}

// ---------------------------------------------------------------------------
// GetProfile
// ---------------------------------------------------------------------------

func profileRow(address string, verified, hasToken bool) *models.UserWithEmail {
	row := &models.UserWithEmail{
		User: models.User{ID: "user-1", Login: "alice", Name: "Alice"},
	}
	if address != "" {
		row.EmailAddress = sql.NullString{String: address, Valid: true}
		row.EmailVerified = sql.NullBool{Bool: verified, Valid: true}
	}
	if hasToken {
		row.TokenGeneratedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	return row
}

func TestGetProfile_NoEmailRow(t *testing.T) {
	users := &fakeUserStore{row: profileRow("", false, false)}
	svc := newTestService(users, nil, nil, nil, nil)

	profile, err := svc.GetProfile(context.Background(), ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Verified || profile.VerificationSent {
		t.Errorf("verified=%v sent=%v, want both false without an email row",
			profile.Verified, profile.VerificationSent)
	}
	if profile.User.Email != "" {
		t.Errorf("email = %q, want empty", profile.User.Email)
	}
}

func TestGetProfile_UnverifiedWithIssuedToken(t *testing.T) {
	users := &fakeUserStore{row: profileRow("new@example.com", false, true)}
	svc := newTestService(users, nil, nil, nil, nil)

	profile, err := svc.GetProfile(context.Background(), ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Verified {
		t.Error("verified must be false until confirmation")
	}
	if !profile.VerificationSent {
		t.Error("verificationSent must be true once a token has ever been issued")
	}
	if profile.User.Email != "new@example.com" {
		t.Errorf("email = %q, want the verification record's address", profile.User.Email)
	}
}

func TestGetProfile_Verified(t *testing.T) {
	users := &fakeUserStore{row: profileRow("ok@example.com", true, true)}
	owners := &fakeOwnershipStore{owned: []models.OwnedPackage{
		{ID: "pkg-a", Name: "alpha", EmailNotifications: true},
	}}
	svc := newTestService(users, nil, owners, nil, nil)

	profile, err := svc.GetProfile(context.Background(), ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.Verified || !profile.VerificationSent {
		t.Error("verified profiles report both flags true")
	}
	if len(profile.OwnedPackages) != 1 || profile.OwnedPackages[0].Name != "alpha" {
		t.Errorf("owned packages = %+v", profile.OwnedPackages)
	}
}

func TestGetProfile_UnknownUser(t *testing.T) {
	svc := newTestService(&fakeUserStore{row: nil}, nil, nil, nil, nil)

	_, err := svc.GetProfile(context.Background(), ident)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

// ---------------------------------------------------------------------------
// GetUpdateFeed
// ---------------------------------------------------------------------------

func TestGetUpdateFeed_MapsRowsAndMoreFlag(t *testing.T) {
	now := time.Now()
	feed := &fakeFeedStore{
		entries: []models.FeedEntry{
			{
				Version:          models.Version{ID: "v-2", Num: "v2.0.0", CreatedAt: now},
				PackageName:      "alpha",
				PublishedByLogin: sql.NullString{String: "bob", Valid: true},
			},
			{
				Version:     models.Version{ID: "v-1", Num: "not-a-version", CreatedAt: now.Add(-time.Hour)},
				PackageName: "alpha",
			},
		},
		more: true,
	}
	svc := newTestService(nil, nil, nil, feed, nil)

	page, err := svc.GetUpdateFeed(context.Background(), ident, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.More {
		t.Error("more flag lost in translation")
	}
	if page.Versions[0].Num != "2.0.0" {
		t.Errorf("num = %q, want normalized semver", page.Versions[0].Num)
	}
	if page.Versions[1].Num != "not-a-version" {
		t.Errorf("non-semver num = %q, want pass-through", page.Versions[1].Num)
	}
	if page.Versions[0].PublishedBy == nil || *page.Versions[0].PublishedBy != "bob" {
		t.Error("publisher login lost in translation")
	}
	if page.Versions[1].PublishedBy != nil {
		t.Error("unknown publisher must stay nil")
	}
}
