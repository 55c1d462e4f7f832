// Package credstore holds the persisted Credential Store backends. Every
// driver implements musifysdk.CredentialStore for a single profile and seals
// the session with a Codec before it leaves the process.
package credstore

import (
	"encoding/json"
	"fmt"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
)

// DefaultProfile is used when no profile name is configured.
const DefaultProfile = "default"

// ErrCorrupt is returned when a stored blob cannot be opened or decoded,
// typically because the master key changed.
var ErrCorrupt = musifysdk.ErrSessionCorrupt

// Store is a CredentialStore that owns resources.
type Store interface {
	musifysdk.CredentialStore
	Close() error
}

// Codec turns a session into a sealed blob bound to one profile. A blob
// sealed for one profile does not open under another.
type Codec struct {
	sealer *cryptox.Sealer
	aad    []byte
}

func NewCodec(sealer *cryptox.Sealer, profile string) *Codec {
	if profile == "" {
		profile = DefaultProfile
	}
	return &Codec{sealer: sealer, aad: []byte("musify:" + profile)}
}

// Encode validates and seals s.
func (c *Codec) Encode(s musifysdk.Session) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	sealed, err := c.sealer.Seal(raw, c.aad)
	if err != nil {
		return nil, fmt.Errorf("failed to seal session: %w", err)
	}
	return sealed, nil
}

// Decode opens a blob produced by Encode.
func (c *Codec) Decode(blob []byte) (musifysdk.Session, error) {
	raw, err := c.sealer.Open(blob, c.aad)
	if err != nil {
		return musifysdk.Session{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var s musifysdk.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return musifysdk.Session{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := s.Validate(); err != nil {
		return musifysdk.Session{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return s, nil
}
