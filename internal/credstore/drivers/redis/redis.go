// Package redis stores sealed sessions in Redis so several processes (a CLI
// and a daemon, say) can share one login.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "musify:session:"

// Store keeps one profile's session under a single key. The key expires
// after TTL, which should match the refresh token lifetime.
type Store struct {
	client *redis.Client
	codec  *credstore.Codec
	key    string
	ttl    time.Duration
}

var _ credstore.Store = (*Store)(nil)

// NewStore uses client for profile. A ttl of zero keeps the key forever.
func NewStore(client *redis.Client, codec *credstore.Codec, profile string, ttl time.Duration) *Store {
	if profile == "" {
		profile = credstore.DefaultProfile
	}
	return &Store{
		client: client,
		codec:  codec,
		key:    keyPrefix + profile,
		ttl:    ttl,
	}
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Get(ctx context.Context) (musifysdk.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return musifysdk.Session{}, musifysdk.ErrNoSession
	}
	if err != nil {
		return musifysdk.Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	return s.codec.Decode(data)
}

func (s *Store) Set(ctx context.Context, session musifysdk.Session) error {
	sealed, err := s.codec.Encode(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, sealed, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
