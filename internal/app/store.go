package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/internal/credstore/drivers/bolt"
	"github.com/Rostanic20/Musify-Frontend/internal/credstore/drivers/enclave"
	"github.com/Rostanic20/Musify-Frontend/internal/credstore/drivers/redis"
	"github.com/Rostanic20/Musify-Frontend/internal/credstore/drivers/sqlite"
	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
)

// ErrUnknownStore is returned by OpenStore for an unsupported MUSIFY_STORE.
var ErrUnknownStore = errors.New("unknown credential store")

// OpenStore builds the credential store selected by cfg.Store.
//
// Persistent kinds (sqlite, bolt, redis) seal sessions with the master key
// from MasterKeyPath or MUSIFY_MASTER_KEY. The memory and enclave kinds
// live only as long as the process.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (credstore.Store, error) {
	switch cfg.Store {
	case StoreMemory:
		return memoryStore{musifysdk.NewMemoryStore()}, nil
	case StoreEnclave:
		return enclave.NewStore(), nil
	case StoreSQLite, StoreBolt, StoreRedis:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}

	sealer, err := cryptox.LoadSealer(cfg.MasterKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	codec := credstore.NewCodec(sealer, cfg.Profile)

	switch cfg.Store {
	case StoreSQLite:
		path, err := storePath(cfg)
		if err != nil {
			return nil, err
		}
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
		logger.Debug("opening sqlite credential store", "path", path, "profile", cfg.Profile)
		st, err := sqlite.NewStore(dsn, codec, cfg.Profile)
		if err != nil {
			return nil, err
		}
		return st, nil

	case StoreBolt:
		path, err := storePath(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("opening bolt credential store", "path", path, "profile", cfg.Profile)
		st, err := bolt.NewStoreFromFile(path, codec, cfg.Profile)
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		client, err := redis.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		logger.Debug("using redis credential store", "addr", cfg.RedisAddr, "profile", cfg.Profile)
		return redis.NewStore(client, codec, cfg.Profile, jwtx.DefaultRefreshTokenTTL), nil
	}
}

// storePath resolves the file for a file-backed store, creating its
// directory.
func storePath(cfg Config) (string, error) {
	path := cfg.StorePath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(dir, "musify", "session."+cfg.Store)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create store directory: %w", err)
	}
	return path, nil
}

type memoryStore struct {
	*musifysdk.MemoryStore
}

func (memoryStore) Close() error { return nil }
