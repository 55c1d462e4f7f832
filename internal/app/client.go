package app

import (
	"log/slog"

	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// NewLogger builds the process logger for the named component.
func NewLogger(cfg Config, service string) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: service,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// NewClient wires an SDK client for cfg.BaseURL over store.
func NewClient(cfg Config, store musifysdk.CredentialStore, logger *slog.Logger, opts ...musifysdk.Option) *musifysdk.SDKClient {
	base := []musifysdk.Option{
		musifysdk.WithLogger(logger),
		musifysdk.WithTimeout(cfg.HTTPTimeout),
		musifysdk.WithRefreshTimeout(cfg.RefreshTimeout),
		musifysdk.WithSessionExpiredHandler(func() {
			logger.Warn("session expired, log in again")
		}),
	}
	return musifysdk.NewSDKClient(cfg.BaseURL, store, append(base, opts...)...)
}
