package account

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"smart-canteen/internal/domain"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byName map[string]domain.User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byName: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	key := strings.ToLower(u.Username)
	if _, exists := r.byName[key]; exists {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	u.ID = r.nextID
	r.byName[key] = u
	clone := u
	return &clone, nil
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.byName[strings.ToLower(username)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.byName {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) EnsureStaff(ctx context.Context, u domain.User) (*domain.User, error) {
	key := strings.ToLower(u.Username)
	if existing, ok := r.byName[key]; ok {
		existing.IsStaff = true
		existing.PasswordHash = u.PasswordHash
		r.byName[key] = existing
		return &existing, nil
	}
	u.IsStaff = true
	return r.Create(ctx, u)
}

func newService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := New(repo, nil)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "Alice", Email: "Alice@Example.com", Password: "Secret123", Confirm: "Secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.IsStaff {
		t.Fatalf("new users must not be staff")
	}
	if stored := repo.byName["alice"]; stored.PasswordHash == "Secret123" || stored.Email != "alice@example.com" {
		t.Fatalf("unexpected stored user: %+v", stored)
	}

	got, err := svc.Authenticate(ctx, "alice", "Secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected user %d, got %d", u.ID, got.ID)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, repo := newService()

	_, err := svc.Register(context.Background(), RegisterInput{Username: "", Email: "nope", Password: "short", Confirm: "other"})
	var v *domain.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"username", "email", "password", "confirm"} {
		if _, ok := v.Fields[field]; !ok {
			t.Fatalf("expected error on %s, got %v", field, v.Fields)
		}
	}
	if len(repo.byName) != 0 {
		t.Fatalf("no user should be created")
	}
}

func TestRegisterRejectsPasswordBeyondBcryptLimit(t *testing.T) {
	svc, repo := newService()
	long := "Secret123" + strings.Repeat("x", 64)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "verbose", Password: long, Confirm: long})
	var v *domain.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v.Fields["password"] != "password must be at most 72 bytes" {
		t.Fatalf("unexpected password error: %v", v.Fields)
	}
	if len(repo.byName) != 0 {
		t.Fatalf("no user should be created")
	}
}

func TestRegisterDuplicateUsernameCaseInsensitive(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	in := RegisterInput{Username: "alice", Password: "Secret123", Confirm: "Secret123"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	in.Username = "ALICE"
	_, err := svc.Register(ctx, in)
	var v *domain.ValidationError
	if !errors.As(err, &v) || v.Fields["username"] == "" {
		t.Fatalf("expected username validation error, got %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	cases := map[string]bool{
		"Secret123": true,
		"secret123": false,
		"SECRET123": false,
		"SecretOne": false,
		"Se1":       false,
	}
	cases["Secret123"+strings.Repeat("x", 63)] = true
	cases["Secret123"+strings.Repeat("x", 64)] = false
	for pw, ok := range cases {
		err := validatePassword(pw, 8)
		if ok && err != nil {
			t.Fatalf("%q: unexpected error %v", pw, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected error", pw)
		}
	}
}

func TestEnsureStaffPromotesExisting(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Username: "cook", Password: "Secret123", Confirm: "Secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	staff, err := svc.EnsureStaff(ctx, "Cook", "Kitchen123")
	if err != nil {
		t.Fatalf("ensure staff: %v", err)
	}
	if !staff.IsStaff || staff.ID != u.ID {
		t.Fatalf("expected promoted user %d, got %+v", u.ID, staff)
	}
	if _, err := svc.Authenticate(ctx, "cook", "Kitchen123"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
}
