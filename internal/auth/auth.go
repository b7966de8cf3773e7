package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/wuwenbin0122/authflow/internal/apperr"
	"github.com/wuwenbin0122/authflow/internal/audit"
	"github.com/wuwenbin0122/authflow/internal/models"
	"github.com/wuwenbin0122/authflow/internal/validate"
)

// AccountStore is the persistence the service needs. *db.UserStore
// implements it.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.NewAccount) (int64, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	ClientIP  string
}

type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

type Service struct {
	store    AccountStore
	hasher   *Hasher
	recorder audit.Recorder

	// dummyHash is compared against when the email is unknown so that both
	// failure paths pay for one bcrypt comparison.
	dummyHash string
}

func NewService(store AccountStore, hasher *Hasher, recorder audit.Recorder) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: account store is nil")
	}
	if hasher == nil {
		return nil, errors.New("auth: hasher is nil")
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}

	dummy, err := hasher.HashPassword("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}

	return &Service{
		store:     store,
		hasher:    hasher,
		recorder:  recorder,
		dummyHash: dummy,
	}, nil
}

// Signup validates the form, hashes the password and inserts the account.
// It returns the number of rows inserted.
func (s *Service) Signup(ctx context.Context, input SignupInput) (int64, error) {
	form, err := validate.Signup(validate.SignupForm{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		return 0, err
	}

	hash, err := s.hasher.HashPassword(form.Password)
	if err != nil {
		return 0, err
	}

	rows, err := s.store.CreateAccount(ctx, models.NewAccount{
		Username:     form.Username,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return 0, err
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:     audit.KindSignup,
		Email:    form.Email,
		ClientIP: input.ClientIP,
		Outcome:  "created",
	})
	return rows, nil
}

// Login returns the user whose email and password match. An unknown email
// and a wrong password both yield apperr.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email, password, err := validate.Login(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.hasher.VerifyPassword(s.dummyHash, password)
		s.recordLoginFailure(ctx, email, input.ClientIP)
		return nil, apperr.ErrInvalidCredentials
	}
	if !s.hasher.VerifyPassword(user.PasswordHash, password) {
		s.recordLoginFailure(ctx, email, input.ClientIP)
		return nil, apperr.ErrInvalidCredentials
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:     audit.KindLoginSucceeded,
		UserID:   user.ID,
		Email:    user.Email,
		ClientIP: input.ClientIP,
	})

	sanitized := user.Sanitize()
	return &sanitized, nil
}

// Logout only records the event; the caller owns the session.
func (s *Service) Logout(ctx context.Context, userID, clientIP string) {
	s.recorder.Record(ctx, audit.Event{
		Kind:     audit.KindLogout,
		UserID:   userID,
		ClientIP: clientIP,
	})
}

func (s *Service) recordLoginFailure(ctx context.Context, email, clientIP string) {
	s.recorder.Record(ctx, audit.Event{
		Kind:     audit.KindLoginFailed,
		Email:    email,
		ClientIP: clientIP,
		Outcome:  "invalid_credentials",
	})
}
