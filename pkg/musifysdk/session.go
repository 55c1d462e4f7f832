package musifysdk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
)

// ErrNoSession is returned by a CredentialStore that holds no session.
var ErrNoSession = errors.New("musifysdk: no session stored")

// ErrSessionCorrupt is returned by a CredentialStore whose stored session
// cannot be opened or decoded. Callers treat it like ErrNoSession.
var ErrSessionCorrupt = errors.New("musifysdk: stored session is unreadable")

// ErrEmptyAccessToken is returned by Set for a session without access token.
var ErrEmptyAccessToken = errors.New("musifysdk: session has no access token")

// Session is the persisted credential pair. An empty RefreshToken means the
// server never issued one.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ExpiresAt reads the expiry embedded in a JWT access token without
// verifying it. Zero when the token is opaque.
func (s Session) ExpiresAt() time.Time {
	return jwtx.ExpiresAt(s.AccessToken)
}

// Validate enforces the invariant every store relies on.
func (s Session) Validate() error {
	if s.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	return nil
}

// CredentialStore persists the single logical session. Implementations
// must be safe for concurrent use.
type CredentialStore interface {
	// Get returns ErrNoSession when nothing is stored.
	Get(ctx context.Context) (Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local CredentialStore.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(_ context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return *m.session, nil
}

func (m *MemoryStore) Set(_ context.Context, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
