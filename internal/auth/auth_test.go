package auth_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/wuwenbin0122/authflow/internal/apperr"
	"github.com/wuwenbin0122/authflow/internal/audit"
	"github.com/wuwenbin0122/authflow/internal/auth"
	"github.com/wuwenbin0122/authflow/internal/models"
)

type memoryAccounts struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	names   map[string]bool
	err     error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byEmail: map[string]models.User{}, names: map[string]bool{}}
}

func (m *memoryAccounts) CreateAccount(ctx context.Context, account models.NewAccount) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.byEmail[account.Email]; ok {
		return 0, &apperr.DuplicateError{Field: apperr.FieldEmail}
	}
	if m.names[account.Username] {
		return 0, &apperr.DuplicateError{Field: apperr.FieldUsername}
	}
	m.names[account.Username] = true
	m.byEmail[account.Email] = models.User{
		ID:           "user-" + strconv.Itoa(len(m.byEmail)+1),
		Username:     account.Username,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
	}
	return 1, nil
}

func (m *memoryAccounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordedEvents) Record(ctx context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordedEvents) kinds() []audit.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func newService(t *testing.T) (*auth.Service, *memoryAccounts, *recordedEvents) {
	t.Helper()
	store := newMemoryAccounts()
	events := &recordedEvents{}
	svc, err := auth.NewService(store, auth.NewHasher(bcrypt.MinCost), events)
	if err != nil {
		t.Fatalf("unexpected error creating auth service: %v", err)
	}
	return svc, store, events
}

var scenario = auth.SignupInput{
	Username:  "ab",
	FirstName: "Jo",
	LastName:  "Do",
	Email:     "a@b.com",
	Password:  "1234",
}

func TestAuthServiceSignupAndLogin(t *testing.T) {
	svc, store, events := newService(t)

	rows, err := svc.Signup(context.Background(), scenario)
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row inserted, got %d", rows)
	}

	stored := store.byEmail["a@b.com"]
	if stored.PasswordHash == "" || stored.PasswordHash == "1234" {
		t.Fatalf("expected a bcrypt hash to be stored, got %q", stored.PasswordHash)
	}

	_, err = svc.Signup(context.Background(), scenario)
	var dup *apperr.DuplicateError
	if !errors.As(err, &dup) || dup.Field != apperr.FieldEmail {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	user, err := svc.Login(context.Background(), auth.LoginInput{Email: "a@b.com", Password: "1234"})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if user.Username != "ab" || user.FirstName != "Jo" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected hash to be stripped from the returned user")
	}

	kinds := events.kinds()
	if len(kinds) != 2 || kinds[0] != audit.KindSignup || kinds[1] != audit.KindLoginSucceeded {
		t.Fatalf("unexpected audit trail: %v", kinds)
	}
}

func TestAuthServiceSignupValidation(t *testing.T) {
	svc, store, _ := newService(t)

	input := scenario
	input.FirstName = "J"
	_, err := svc.Signup(context.Background(), input)

	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != apperr.FieldFirstName || vErr.Reason != apperr.TooShort {
		t.Fatalf("expected first name too short, got %v", err)
	}
	if len(store.byEmail) != 0 {
		t.Fatalf("nothing may be stored after a validation failure")
	}
}

func TestAuthServiceLoginFailuresLookAlike(t *testing.T) {
	svc, _, events := newService(t)
	if _, err := svc.Signup(context.Background(), scenario); err != nil {
		t.Fatalf("signup returned error: %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), auth.LoginInput{Email: "a@b.com", Password: "12345"})
	_, unknownEmail := svc.Login(context.Background(), auth.LoginInput{Email: "x@b.com", Password: "1234"})

	if !errors.Is(wrongPassword, apperr.ErrInvalidCredentials) || !errors.Is(unknownEmail, apperr.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for both, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failures must be indistinguishable: %q vs %q", wrongPassword, unknownEmail)
	}

	kinds := events.kinds()
	if kinds[len(kinds)-1] != audit.KindLoginFailed || kinds[len(kinds)-2] != audit.KindLoginFailed {
		t.Fatalf("expected failed logins to be audited: %v", kinds)
	}
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), auth.LoginInput{Email: "not-an-email", Password: "1234"})
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != apperr.FieldEmail {
		t.Fatalf("expected email validation error, got %v", err)
	}
}

func TestAuthServiceStoreUnavailable(t *testing.T) {
	svc, store, _ := newService(t)
	store.err = apperr.Unavailable("users: acquire connection", errors.New("dial tcp: refused"))

	if _, err := svc.Signup(context.Background(), scenario); !errors.Is(err, apperr.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable on signup, got %v", err)
	}
	if _, err := svc.Login(context.Background(), auth.LoginInput{Email: "a@b.com", Password: "1234"}); !errors.Is(err, apperr.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable on login, got %v", err)
	}
}

func TestAuthServiceConcurrentSignupSameEmail(t *testing.T) {
	svc, _, _ := newService(t)

	const workers = 6
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := scenario
			input.Username = "user" + strconv.Itoa(i)
			_, err := svc.Signup(context.Background(), input)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, duplicates int
	for err := range results {
		var dup *apperr.DuplicateError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &dup) && dup.Field == apperr.FieldEmail:
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || duplicates != workers-1 {
		t.Fatalf("expected one success, got %d successes and %d duplicates", succeeded, duplicates)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := auth.NewService(nil, auth.NewHasher(bcrypt.MinCost), nil); err == nil {
		t.Fatalf("expected error for missing store")
	}
	if _, err := auth.NewService(newMemoryAccounts(), nil, nil); err == nil {
		t.Fatalf("expected error for missing hasher")
	}
}
