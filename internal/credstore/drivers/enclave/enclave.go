// Package enclave keeps the session in a memguard enclave: encrypted while
// at rest in memory and decrypted only into locked, wiped buffers. Nothing
// survives the process.
package enclave

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/awnumar/memguard"
)

type Store struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
}

var _ credstore.Store = (*Store)(nil)

func NewStore() *Store { return &Store{} }

func (s *Store) Get(_ context.Context) (musifysdk.Session, error) {
	s.mu.RLock()
	enclave := s.enclave
	s.mu.RUnlock()

	if enclave == nil {
		return musifysdk.Session{}, musifysdk.ErrNoSession
	}

	buf, err := enclave.Open()
	if err != nil {
		return musifysdk.Session{}, fmt.Errorf("opening session enclave: %w", err)
	}
	defer buf.Destroy()

	var session musifysdk.Session
	if err := json.Unmarshal(buf.Bytes(), &session); err != nil {
		return musifysdk.Session{}, fmt.Errorf("%w: %w", credstore.ErrCorrupt, err)
	}
	return session, nil
}

func (s *Store) Set(_ context.Context, session musifysdk.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// NewEnclave wipes raw.
	enclave := memguard.NewEnclave(raw)

	s.mu.Lock()
	s.enclave = enclave
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.enclave = nil
	s.mu.Unlock()
	return nil
}

// Close drops the session. memguard.Purge is left to the process owner.
func (s *Store) Close() error {
	return s.Clear(context.Background())
}
