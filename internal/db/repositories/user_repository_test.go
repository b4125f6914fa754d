package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/db/models"
)

var errDB = errors.New("db error")

// newMockDB wraps a sqlmock connection in sqlx so repositories can be
// exercised without Postgres. Shared by every repository test in the package.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var userCols = []string{"id", "login", "name", "email", "created_at", "updated_at"}

func sampleUserRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow("user-1", "alice", "Alice", "alice@example.com", time.Now(), time.Now())
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewUserRepository(db), mock
}

// ---------------------------------------------------------------------------
// GetUserByID
// ---------------------------------------------------------------------------

func TestGetUserByID_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-1").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetUserByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Login != "alice" {
		t.Errorf("login = %s, want alice", user.Login)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userCols))

	user, err := repo.GetUserByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user for not found, got %v", user)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-1").
		WillReturnError(errDB)

	_, err := repo.GetUserByID(context.Background(), "user-1")
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetUserByLogin
// ---------------------------------------------------------------------------

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE login").
		WithArgs("alice").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE login").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userCols))

	user, err := repo.GetUserByLogin(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %v", user)
	}
}

// ---------------------------------------------------------------------------
// CreateUser
// ---------------------------------------------------------------------------

func TestCreateUser_Success(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Login: "bob", Name: "Bob"}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected ID to be set")
	}
}

func TestCreateUser_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errDB)

	user := &models.User{Login: "bob", Name: "Bob"}
	if err := repo.CreateUser(context.Background(), user); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetUserWithEmail
// ---------------------------------------------------------------------------

var userWithEmailCols = []string{
	"id", "login", "name", "email", "created_at", "updated_at",
	"email_address", "email_verified", "token_generated_at",
}

func TestGetUserWithEmail_WithVerificationRecord(t *testing.T) {
	repo, mock := newUserRepo(t)
	issued := time.Now()
	mock.ExpectQuery("SELECT.*FROM users u.*LEFT JOIN emails e").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userWithEmailCols).
			AddRow("user-1", "alice", "Alice", "alice@example.com", time.Now(), time.Now(),
				"alice@example.com", true, issued))

	row, err := repo.GetUserWithEmail(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row == nil {
		t.Fatal("expected row, got nil")
	}
	if !row.EmailAddress.Valid || row.EmailAddress.String != "alice@example.com" {
		t.Errorf("email_address = %+v", row.EmailAddress)
	}
	if !row.EmailVerified.Valid || !row.EmailVerified.Bool {
		t.Errorf("email_verified = %+v, want valid true", row.EmailVerified)
	}
	if !row.TokenGeneratedAt.Valid {
		t.Error("token_generated_at should be valid")
	}
}

func TestGetUserWithEmail_NoVerificationRecord(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users u.*LEFT JOIN emails e").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userWithEmailCols).
			AddRow("user-1", "alice", "Alice", "", time.Now(), time.Now(),
				nil, nil, nil))

	row, err := repo.GetUserWithEmail(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row == nil {
		t.Fatal("expected row, got nil")
	}
	if row.EmailAddress.Valid || row.EmailVerified.Valid || row.TokenGeneratedAt.Valid {
		t.Errorf("email columns should all be NULL, got %+v", row)
	}
}

func TestGetUserWithEmail_UserMissing(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users u.*LEFT JOIN emails e").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userWithEmailCols))

	row, err := repo.GetUserWithEmail(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != nil {
		t.Errorf("expected nil for missing user, got %+v", row)
	}
}
