// Package validate checks raw form fields before they reach the credential
// manager or the store. Every function trims its input and returns either the
// trimmed value or an *apperr.ValidationError.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wuwenbin0122/authflow/internal/apperr"
)

const (
	NameMin     = 2
	NameMax     = 20
	PasswordMin = 4
	PasswordMax = 50
)

var (
	// The local-part classes exclude Unicode whitespace and separators, not
	// only the ASCII set RE2 calls \s.
	emailPattern = regexp.MustCompile(`^(([^<>()[\]\\.,;:\s\v\x1c-\x1f\x85\p{Z}@"]+(\.[^<>()[\]\\.,;:\s\v\x1c-\x1f\x85\p{Z}@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

	// "." excludes line breaks, so a password with an embedded newline fails.
	passwordPattern = regexp.MustCompile(`^.{4,50}$`)
)

// SignupForm carries the raw signup fields.
type SignupForm struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

func Username(s string) (string, error) {
	return bounded(s, apperr.FieldUsername)
}

func FirstName(s string) (string, error) {
	return bounded(s, apperr.FieldFirstName)
}

func LastName(s string) (string, error) {
	return bounded(s, apperr.FieldLastName)
}

// Email accepts a dotted domain with an alphabetic TLD of at least two
// letters, or a bracketed IPv4 literal.
func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !emailPattern.MatchString(s) {
		return "", &apperr.ValidationError{Field: apperr.FieldEmail, Reason: apperr.InvalidFormat}
	}
	return s, nil
}

// Password only enforces length; there are no character-class rules.
func Password(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !passwordPattern.MatchString(s) {
		return "", &apperr.ValidationError{Field: apperr.FieldPassword, Reason: apperr.InvalidFormat}
	}
	return s, nil
}

// Signup validates all five fields in form order and stops at the first
// failure.
func Signup(form SignupForm) (SignupForm, error) {
	var (
		out SignupForm
		err error
	)
	if out.Username, err = Username(form.Username); err != nil {
		return SignupForm{}, err
	}
	if out.FirstName, err = FirstName(form.FirstName); err != nil {
		return SignupForm{}, err
	}
	if out.LastName, err = LastName(form.LastName); err != nil {
		return SignupForm{}, err
	}
	if out.Email, err = Email(form.Email); err != nil {
		return SignupForm{}, err
	}
	if out.Password, err = Password(form.Password); err != nil {
		return SignupForm{}, err
	}
	return out, nil
}

func Login(email, password string) (string, string, error) {
	email, err := Email(email)
	if err != nil {
		return "", "", err
	}
	password, err = Password(password)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func bounded(s, field string) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n < NameMin:
		return "", &apperr.ValidationError{Field: field, Reason: apperr.TooShort}
	case n > NameMax:
		return "", &apperr.ValidationError{Field: field, Reason: apperr.TooLong}
	}
	return s, nil
}
