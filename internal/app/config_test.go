package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"MUSIFY_BASE_URL", "MUSIFY_STORE", "MUSIFY_STORE_PATH", "MUSIFY_PROFILE",
		"MUSIFY_HTTP_TIMEOUT", "MOCK_ACCESS_TTL", "MOCK_ROTATE_REFRESH", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, "default", cfg.Profile)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 15*time.Minute, cfg.MockAccessTTL)
	require.True(t, cfg.MockRotateRefresh)
	require.Equal(t, 8080, cfg.Port)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MUSIFY_BASE_URL", "https://api.musify.example")
	t.Setenv("MUSIFY_STORE", "redis")
	t.Setenv("MUSIFY_PROFILE", "work")
	t.Setenv("MUSIFY_HTTP_TIMEOUT", "5s")
	t.Setenv("MUSIFY_REFRESH_TIMEOUT", "12")
	t.Setenv("MOCK_ROTATE_REFRESH", "false")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()
	require.Equal(t, "https://api.musify.example", cfg.BaseURL)
	require.Equal(t, StoreRedis, cfg.Store)
	require.Equal(t, "work", cfg.Profile)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 12*time.Second, cfg.RefreshTimeout)
	require.False(t, cfg.MockRotateRefresh)
	require.Equal(t, 9090, cfg.Port)
}

func TestGetEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("MUSIFY_TEST_INT", "abc")
	t.Setenv("MUSIFY_TEST_DURATION", "soon")
	t.Setenv("MUSIFY_TEST_BOOL", "perhaps")

	require.Equal(t, 7, getEnvIntOrDefault("MUSIFY_TEST_INT", 7))
	require.Equal(t, time.Minute, getEnvDurationOrDefault("MUSIFY_TEST_DURATION", time.Minute))
	require.True(t, getEnvBoolOrDefault("MUSIFY_TEST_BOOL", true))
}
