package sdk

import (
	"context"
	"fmt"
	"sync"
)

// Storage keys under which a session is persisted.
const (
	TokenKey    = "access_token"
	IdentityKey = "user"
)

// Session represents the token and cached identity of a logged-in client.
// A present token does not make the cached identity trustworthy; only a successful
// identity fetch does.
type Session struct {
	Token    string    `json:"access_token"`
	Identity *Identity `json:"user"`
}

// Complete reports whether both the token and the identity are present.
func (s *Session) Complete() bool {
	return s != nil && s.Token != "" && s.Identity != nil
}

// ValidateSession rejects sessions that would be stored partially.
func ValidateSession(session Session) error {
	if !session.Complete() {
		return fmt.Errorf("%w: session requires both a token and an identity", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	if s.Identity != nil {
		id := s.Identity.Clone()
		s.Identity = &id
	}
	return s
}

// SessionStore persists the session token together with the identity snapshot.
// Put writes both fields, Clear removes both; a store never reports a partial session.
type SessionStore interface {
	Put(ctx context.Context, session Session) error
	// Get returns ErrNoSession when nothing is stored.
	Get(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process SessionStore.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Put(_ context.Context, session Session) error {
	if err := ValidateSession(session); err != nil {
		return err
	}
	stored := session.Clone()
	m.mu.Lock()
	m.session = &stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, ErrNoSession
	}
	out := m.session.Clone()
	return &out, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}
