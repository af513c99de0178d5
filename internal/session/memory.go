package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"smart-canteen/internal/domain"
)

// MemoryStore is an in-process Store for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	expiry   map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		expiry:   make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy so callers never share the stored cart map.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	raw, ok := m.sessions[id]
	exp := m.expiry[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.now().After(exp) {
		m.mu.Lock()
		delete(m.sessions, id)
		delete(m.expiry, id)
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Cart == nil {
		s.Cart = domain.Cart{}
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	exp := m.now().Add(m.ttl)
	s.ExpiresAt = exp.UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.ID] = raw
	m.expiry[s.ID] = exp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.expiry, id)
	m.mu.Unlock()
	return nil
}
