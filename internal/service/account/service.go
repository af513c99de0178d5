package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"smart-canteen/internal/domain"
	userrepo "smart-canteen/internal/repository/user"
)

// ErrInvalidCredentials is returned when username/password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles registration and login.
type Service struct {
	repo        userrepo.Repository
	log         *zap.Logger
	passwordMin int
	cost        int
}

func New(repo userrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		log:         logger.Named("account_service"),
		passwordMin: 8,
		cost:        bcrypt.DefaultCost,
	}
}

// RegisterInput captures the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Register creates a non-staff user. Rejected input is reported as a
// *domain.ValidationError keyed by form field.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	v := domain.NewValidationError()
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))

	switch {
	case username == "":
		v.Add("username", "This field is required.")
	case len(username) > 150:
		v.Add("username", "Ensure this value has at most 150 characters.")
	case strings.ContainsAny(username, " \t\n/"):
		v.Add("username", "Enter a valid username.")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			v.Add("email", "Enter a valid email address.")
		}
	}
	if err := validatePassword(in.Password, s.passwordMin); err != nil {
		v.Add("password", err.Error())
	}
	if in.Password != in.Confirm {
		v.Add("confirm", "The two password fields didn't match.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "hash password")
	}
	u, err := s.repo.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			v.Add("username", "A user with that username already exists.")
			return nil, v
		}
		return nil, pkgerrors.Wrap(err, "create user")
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Authenticate checks the password for username (case-insensitive).
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureStaff creates or promotes username to staff with the given password.
func (s *Service) EnsureStaff(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "hash password")
	}
	return s.repo.EnsureStaff(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hashed),
		IsStaff:      true,
	})
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	if len(p) > maxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
