package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Rostanic20/Musify-Frontend/internal/fakeapi"
	"github.com/Rostanic20/Musify-Frontend/pkg/httpx"
)

// MockServer runs the in-memory Musify auth API as a standalone process.
type MockServer struct {
	cfg    Config
	logger *slog.Logger

	api    *fakeapi.Server
	server *http.Server
}

// NewMockServer creates the API and, when MockSeedUser is set, its seed
// account. RATELIMIT_* overrides are applied first.
func NewMockServer(cfg Config, logger *slog.Logger) (*MockServer, error) {
	httpx.LoadRateLimitProfiles()

	api, err := fakeapi.New(fakeapi.Config{
		AccessTTL:           cfg.MockAccessTTL,
		RotateRefreshTokens: cfg.MockRotateRefresh,
		ExposeOutbox:        cfg.MockExposeOutbox,
		Version:             BuildVersion,
		Logger:              logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mock api: %w", err)
	}

	if cfg.MockSeedUser != "" {
		username, password, ok := strings.Cut(cfg.MockSeedUser, ":")
		if !ok || username == "" || password == "" {
			return nil, errors.New("MOCK_SEED_USER must be username:password")
		}
		if _, _, err := api.SeedUser(fakeapi.SeedAccount{
			Username:    username,
			Email:       username + "@musify.test",
			Password:    password,
			DisplayName: username,
			Verified:    true,
		}); err != nil {
			return nil, fmt.Errorf("failed to seed user: %w", err)
		}
		logger.Info("seed user created", "username", username)
	}

	return &MockServer{
		cfg:    cfg,
		logger: logger,
		api:    api,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           api,
			ReadHeaderTimeout: 3 * time.Second,
		},
	}, nil
}

// API exposes the underlying server and its test hooks.
func (m *MockServer) API() *fakeapi.Server { return m.api }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (m *MockServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return m.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (m *MockServer) Serve(ctx context.Context, ln net.Listener) error {
	m.logger.Info("mock api starting", "addr", ln.Addr().String(), "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- m.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		m.logger.Info("shutdown requested", "cause", context.Cause(ctx))

		if err := m.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (m *MockServer) Shutdown() error {
	m.logger.Info("shutting down mock api...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := m.server.Shutdown(ctx); err != nil {
		m.logger.Error("graceful server shutdown failed", "error", err)
		if err := m.server.Close(); err != nil {
			m.logger.Error("error closing server", "error", err)
		}
		return err
	}

	m.logger.Info("mock api stopped")
	return nil
}
