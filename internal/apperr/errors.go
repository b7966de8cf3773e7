// Package apperr holds the closed set of errors that cross the request
// boundary. Handlers switch on these with errors.As / errors.Is; nothing
// inspects error text.
package apperr

import (
	"errors"
	"fmt"
)

// Reason tags why a field failed validation.
type Reason string

const (
	TooShort      Reason = "too_short"
	TooLong       Reason = "too_long"
	InvalidFormat Reason = "invalid_format"
)

// Field names used by ValidationError and DuplicateError.
const (
	FieldUsername  = "username"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldPassword  = "password"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrServiceUnavailable marks store failures: unreachable, timed out or a
	// transaction that could not complete.
	ErrServiceUnavailable = errors.New("store: service unavailable")
)

type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate: %s %s", e.Field, e.Reason)
}

// DuplicateError reports a uniqueness violation. Field is empty when the
// store did not say which constraint fired.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "store: duplicate account"
	}
	return fmt.Sprintf("store: duplicate %s", e.Field)
}

// Unavailable wraps cause so that errors.Is(err, ErrServiceUnavailable)
// holds while the original error stays reachable for logging.
func Unavailable(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, ErrServiceUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, cause)
}
