// Package bolt provides a bbolt-backed credential store. One file can hold
// the sessions of many profiles, one key each.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// OpenTimeout bounds how long NewStoreFromFile waits for the file lock.
const OpenTimeout = time.Second

type Store struct {
	db     *bbolt.DB
	codec  *credstore.Codec
	key    []byte
	ownsDB bool
}

var _ credstore.Store = (*Store)(nil)

// NewStore returns a Store for profile on an already open database. Close
// leaves db open.
func NewStore(db *bbolt.DB, codec *credstore.Codec, profile string) (*Store, error) {
	if profile == "" {
		profile = credstore.DefaultProfile
	}
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Store{db: db, codec: codec, key: []byte(profile)}, nil
}

// NewStoreFromFile opens the bbolt database at path. The Store owns it.
func NewStoreFromFile(path string, codec *credstore.Codec, profile string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	s, err := NewStore(db, codec, profile)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(_ context.Context) (musifysdk.Session, error) {
	var sealed []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get(s.key)
		if data == nil {
			return musifysdk.ErrNoSession
		}
		// data is only valid for the life of the transaction.
		sealed = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return musifysdk.Session{}, err
	}
	return s.codec.Decode(sealed)
}

func (s *Store) Set(_ context.Context, session musifysdk.Session) error {
	sealed, err := s.codec.Encode(session)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put(s.key, sealed)
	})
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete(s.key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
