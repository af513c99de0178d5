// Package session keeps per-browser state: the signed-in user and the cart.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"smart-canteen/internal/domain"
)

// Session is the server-side state behind a session cookie.
type Session struct {
	ID        string      `json:"id"`
	UserID    int64       `json:"userId,omitempty"`
	Username  string      `json:"username,omitempty"`
	IsStaff   bool        `json:"isStaff,omitempty"`
	Cart      domain.Cart `json:"cart"`
	Flash     string      `json:"flash,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Store persists sessions. Get returns domain.ErrNotFound for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// New returns an anonymous session with a fresh random id.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		Cart:      domain.Cart{},
		CreatedAt: time.Now().UTC(),
	}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// Login binds the user to the session; the cart is kept.
func (s *Session) Login(u domain.User) {
	s.UserID = u.ID
	s.Username = u.Username
	s.IsStaff = u.IsStaff
}

// PopFlash returns the pending flash message and clears it.
func (s *Session) PopFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}
