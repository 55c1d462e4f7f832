package fakeapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/httpx"
	"github.com/Rostanic20/Musify-Frontend/pkg/jwtx"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/Rostanic20/Musify-Frontend/internal/fakeapi/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         chi.Router
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	registry     *prometheus.Registry
	metrics      *serverMetrics

	AuthService *AuthService
	Limits      RateLimits
	// ExposeOutbox mounts GET /_mock/outbox.
	ExposeOutbox bool
}

// RateLimits are the per-route limiter profiles.
type RateLimits struct {
	Login   httpx.RateLimitConfig
	Resend  httpx.RateLimitConfig
	Default httpx.RateLimitConfig
}

// DefaultRateLimits returns the httpx package profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Login:   httpx.LoginLimit,
		Resend:  httpx.ResendLimit,
		Default: httpx.DefaultLimit,
	}
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	svc *AuthService,
	logger *slog.Logger,
) *Router {
	registry := prometheus.NewRegistry()

	r := &Router{
		Mux:          chi.NewRouter(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		registry:     registry,
		metrics:      newServerMetrics(registry),
		AuthService:  svc,
		Limits:       DefaultRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.Mux.Use(middleware.Recoverer, r.metrics.middleware())

	r.registerAuth()
	r.registerVerification()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/*", httpSwagger.Handler())
}

// Registry is the Prometheus registry served on /metrics.
func (r *Router) Registry() *prometheus.Registry { return r.registry }

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Musify Auth API (mock)
//	@version		0.1.0
//	@description	In-memory implementation of the Musify authentication endpoints used for
//	@description	client development and tests. Access tokens are EdDSA JWTs verifiable with the JWKS endpoint.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authHandler() *AuthHandler {
	return &AuthHandler{Service: r.AuthService, metrics: r.metrics}
}

func (r *Router) registerAuth() {
	h := r.authHandler()

	// Login is limited by IP + attempted username to slow credential stuffing
	r.Mux.With(httpx.RateLimitByIPAndJSONField(r.Limits.Login, "username")).
		Post("/api/auth/login", h.HandleLogin)

	r.Mux.With(httpx.RateLimitByIP(r.Limits.Default)).
		Post("/api/auth/register", h.HandleRegister)

	r.Mux.With(httpx.RateLimitByIP(r.Limits.Default)).
		Post("/api/auth/refresh", h.HandleRefresh)

	r.Mux.With(
		httpx.AuthnMiddleware(r.verifier),
		RequireLiveSession(r.AuthService),
		httpx.RateLimitByUser(r.Limits.Default),
	).Post("/api/auth/logout", h.HandleLogout)
}

func (r *Router) registerVerification() {
	h := r.authHandler()

	r.Mux.With(httpx.RateLimitByIP(r.Limits.Default)).
		Get("/api/auth/verify-email", h.HandleVerifyEmail)
	r.Mux.With(httpx.RateLimitByIP(r.Limits.Login)).
		Post("/api/auth/verify-sms", h.HandleVerifySMS)

	// One resend per address per window, across both channels
	resend := httpx.RateLimitMiddleware(r.Limits.Resend, resendKey)
	r.Mux.With(resend).Post("/api/auth/resend-verification", h.HandleResendEmail)
	r.Mux.With(resend).Post("/api/auth/resend-sms", h.HandleResendSMS)
}

func (r *Router) registerUsers() {
	h := r.authHandler()

	r.Mux.With(
		httpx.AuthnMiddleware(r.verifier),
		RequireLiveSession(r.AuthService),
		httpx.RateLimitByUser(r.Limits.Default),
	).Get("/api/users/me", h.HandleMe)
}

func (r *Router) registerSystem() {
	r.Mux.Get("/health", HealthHandler(r.startTime, r.buildVersion))
	r.Mux.Get("/.well-known/jwks.json", JWKSHandler(r.keys))
	r.Mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	if r.ExposeOutbox {
		r.Mux.Get("/_mock/outbox", OutboxHandler(r.AuthService))
	}
}
