package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	_ "modernc.org/sqlite"
)

// Store keeps the sealed session of one profile in a sqlite file.
type Store struct {
	db      *sql.DB
	codec   *credstore.Codec
	profile string
}

var _ credstore.Store = (*Store)(nil)

// NewStore opens dsn and applies pending migrations.
func NewStore(dsn string, codec *credstore.Codec, profile string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// A single connection serialises writers instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	if profile == "" {
		profile = credstore.DefaultProfile
	}

	s := &Store{db: db, codec: codec, profile: profile}
	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context) (musifysdk.Session, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT sealed FROM sessions WHERE profile = ?`, s.profile,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return musifysdk.Session{}, musifysdk.ErrNoSession
	}
	if err != nil {
		return musifysdk.Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	return s.codec.Decode(sealed)
}

func (s *Store) Set(ctx context.Context, session musifysdk.Session) error {
	sealed, err := s.codec.Encode(session)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (profile, sealed, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile) DO UPDATE SET
			sealed = excluded.sealed,
			updated_at = excluded.updated_at`,
		s.profile, sealed, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE profile = ?`, s.profile); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
