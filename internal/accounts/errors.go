// Package accounts implements the core account-identity operations: the
// email verification state machine, the notification-preference
// synchronizer, and the profile/feed assemblers. It holds no SQL and no HTTP
// concerns; storage and transport live in the surrounding packages.
package accounts

import "fmt"

// ValidationError reports malformed or empty required input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AuthorizationError reports that the acting identity does not own the
// target resource.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// NotFoundError reports that the row an operation requires is absent.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ConflictError reports a uniqueness violation not resolved by an upsert.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// TransientStoreError wraps a connection, statement, or transaction failure.
// The core never retries these; the caller may retry the whole request.
type TransientStoreError struct {
	Msg string
	Err error
}

func (e *TransientStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// storeErr wraps a storage failure into the taxonomy.
func storeErr(err error) error {
	return &TransientStoreError{Msg: "storage failure", Err: err}
}
