package fakeapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/idx"
	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
)

const (
	DefaultIssuer   = "musify-api"
	DefaultAudience = "musify-app"
)

// Config configures a Server. The zero value is usable.
type Config struct {
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RotateRefreshTokens makes every refresh return a new refresh token
	// and revoke the presented one.
	RotateRefreshTokens bool

	// Limits overrides DefaultRateLimits.
	Limits *RateLimits

	// ExposeOutbox mounts GET /_mock/outbox with pending verification
	// tokens and codes.
	ExposeOutbox bool

	Version string
	Logger  *slog.Logger
}

// Server is a ready-to-serve mock API with an ephemeral signing key.
type Server struct {
	*AuthService

	Router *Router
	Keys   *jwtx.KeySet
}

func New(cfg Config) (*Server, error) {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if len(cfg.Audience) == 0 {
		cfg.Audience = []string{DefaultAudience}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slogx.Discard()
	}

	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	signer, err := jwtx.NewSignerEdDSA(idx.New().String(), pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("failed to register signing key: %w", err)
	}

	svc := &AuthService{
		state:               newState(),
		Signer:              signer,
		Issuer:              cfg.Issuer,
		Audience:            cfg.Audience,
		AccessTTL:           cfg.AccessTTL,
		RefreshTTL:          cfg.RefreshTTL,
		RotateRefreshTokens: cfg.RotateRefreshTokens,
		Logger:              cfg.Logger,
	}

	router := NewRouter(keys, jwtx.NewCommonEdDSA(keys, cfg.Issuer, cfg.Audience), cfg.Version, svc, cfg.Logger)
	if cfg.Limits != nil {
		router.Limits = *cfg.Limits
	}
	router.ExposeOutbox = cfg.ExposeOutbox
	router.ApplyRoutes()

	return &Server{AuthService: svc, Router: router, Keys: keys}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
