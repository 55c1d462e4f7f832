package fakeapi

import (
	"strings"
	"sync"
	"time"
)

type user struct {
	ID            int64
	Email         string
	PhoneNumber   string
	Username      string
	DisplayName   string
	PasswordHash  string
	TOTPSecret    string
	IsArtist      bool
	IsPremium     bool
	EmailVerified bool
	PhoneVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type refreshToken struct {
	UserID    int64
	SessionID string
	ExpiresAt time.Time
	Revoked   bool
}

// state is the whole mock database. Every method takes the lock itself.
type state struct {
	mu sync.Mutex

	nextID     int64
	users      map[int64]*user
	byUsername map[string]int64
	byEmail    map[string]int64
	byPhone    map[string]int64

	// keyed by cryptox.FingerprintToken of the opaque token
	refreshTokens map[string]*refreshToken

	// live access token IDs (jti) mapped to their session
	accessTokens map[string]string
	revokedJTI   map[string]struct{}

	// keyed by fingerprint, value is the user ID
	emailTokens map[string]int64
	// latest plaintext token and code per address, read by the outbox
	outboxEmail map[string]string
	outboxSMS   map[string]string
}

func newState() *state {
	return &state{
		nextID:        1,
		users:         make(map[int64]*user),
		byUsername:    make(map[string]int64),
		byEmail:       make(map[string]int64),
		byPhone:       make(map[string]int64),
		refreshTokens: make(map[string]*refreshToken),
		accessTokens:  make(map[string]string),
		revokedJTI:    make(map[string]struct{}),
		emailTokens:   make(map[string]int64),
		outboxEmail:   make(map[string]string),
		outboxSMS:     make(map[string]string),
	}
}

func usernameKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func emailKey(s string) string    { return strings.ToLower(strings.TrimSpace(s)) }

// insertUser assigns an ID. Callers check uniqueness under the same lock.
func (s *state) insertUser(u *user) {
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = u
	s.byUsername[usernameKey(u.Username)] = u.ID
	if u.Email != "" {
		s.byEmail[emailKey(u.Email)] = u.ID
	}
	if u.PhoneNumber != "" {
		s.byPhone[u.PhoneNumber] = u.ID
	}
}

// lookup finds a user by username or, when identifier looks like one, email.
func (s *state) lookup(identifier string) (*user, bool) {
	index := s.byUsername
	key := usernameKey(identifier)
	if strings.Contains(identifier, "@") {
		index, key = s.byEmail, emailKey(identifier)
	}
	id, ok := index[key]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

func (s *state) revokeSession(sessionID string) {
	for _, rt := range s.refreshTokens {
		if rt.SessionID == sessionID {
			rt.Revoked = true
		}
	}
	for jti, sid := range s.accessTokens {
		if sid == sessionID {
			s.revokedJTI[jti] = struct{}{}
			delete(s.accessTokens, jti)
		}
	}
}
