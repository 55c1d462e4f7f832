package app

import (
	"os"
	"strconv"
	"time"

	"github.com/Rostanic20/Musify-Frontend/internal/credstore"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
)

// Credential store kinds accepted by MUSIFY_STORE.
const (
	StoreMemory  = "memory"
	StoreSQLite  = "sqlite"
	StoreBolt    = "bolt"
	StoreRedis   = "redis"
	StoreEnclave = "enclave"
)

type Config struct {
	BaseURL        string        // Musify API base URL (default: http://localhost:8080)
	Store          string        // Credential store kind (memory, sqlite, bolt, redis, enclave) (default: sqlite)
	StorePath      string        // Optional: sqlite/bolt file (default: <user config dir>/musify/session.<kind>)
	RedisAddr      string        // Redis address for the redis store (default: localhost:6379)
	Profile        string        // Session profile name, one session per profile (default: default)
	MasterKeyPath  string        // Optional: file holding the sealing key, else MUSIFY_MASTER_KEY
	HTTPTimeout    time.Duration // Per-request timeout (default: 30s)
	RefreshTimeout time.Duration // Refresh exchange timeout (default: 30s)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)

	// Mock server only
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	MockAccessTTL       time.Duration // Access token lifetime (default: 15m)
	MockRotateRefresh   bool          // Rotate refresh tokens on every refresh (default: true)
	MockSeedUser        string        // Optional: "username:password" created at startup
	MockExposeOutbox    bool          // Serve /_mock/outbox (default: true)
}

func LoadConfig() Config {
	return Config{
		BaseURL:        getEnvOrDefault("MUSIFY_BASE_URL", "http://localhost:8080"),
		Store:          getEnvOrDefault("MUSIFY_STORE", StoreSQLite),
		StorePath:      os.Getenv("MUSIFY_STORE_PATH"),
		RedisAddr:      getEnvOrDefault("MUSIFY_REDIS_ADDR", "localhost:6379"),
		Profile:        getEnvOrDefault("MUSIFY_PROFILE", credstore.DefaultProfile),
		MasterKeyPath:  os.Getenv("MUSIFY_MASTER_KEY_PATH"),
		HTTPTimeout:    getEnvDurationOrDefault("MUSIFY_HTTP_TIMEOUT", musifysdk.DefaultTimeout),
		RefreshTimeout: getEnvDurationOrDefault("MUSIFY_REFRESH_TIMEOUT", musifysdk.DefaultRefreshTimeout),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),

		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		MockAccessTTL:       getEnvDurationOrDefault("MOCK_ACCESS_TTL", 15*time.Minute),
		MockRotateRefresh:   getEnvBoolOrDefault("MOCK_ROTATE_REFRESH", true),
		MockSeedUser:        os.Getenv("MOCK_SEED_USER"),
		MockExposeOutbox:    getEnvBoolOrDefault("MOCK_EXPOSE_OUTBOX", true),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
