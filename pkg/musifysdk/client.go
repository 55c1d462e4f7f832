package musifysdk

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
)

// DefaultTimeout applies to every request made through SDKClient.HTTPClient.
const DefaultTimeout = 30 * time.Second

// SDKClient talks to the Musify API on behalf of a single logical session.
type SDKClient struct {
	BaseURL string

	// HTTPClient attaches the session token and refreshes on 401. Use it
	// for any authenticated API call the SDK does not wrap.
	HTTPClient *http.Client

	// RefreshClient has no authenticator so refreshing can never recurse.
	RefreshClient *http.Client

	store     CredentialStore
	refresher *Refresher
	log       *slog.Logger
}

type clientOptions struct {
	base           http.RoundTripper
	timeout        time.Duration
	refreshTimeout time.Duration
	logger         *slog.Logger
	metrics        *Metrics
	publicPaths    []string
	onExpired      func()
}

// Option configures NewSDKClient.
type Option func(*clientOptions)

// WithTransport sets the RoundTripper beneath logging and authentication.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// WithTimeout bounds each API call. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithRefreshTimeout bounds one refresh flight.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.refreshTimeout = d }
}

// WithLogger sets the logger for the client and its transports.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithMetrics records refresh and replay metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithPublicPaths replaces the path suffixes sent without a token.
func WithPublicPaths(paths ...string) Option {
	return func(o *clientOptions) { o.publicPaths = paths }
}

// WithSessionExpiredHandler registers a hook fired once per failed refresh,
// typically used to route the user back to the login screen.
func WithSessionExpiredHandler(fn func()) Option {
	return func(o *clientOptions) { o.onExpired = fn }
}

// NewSDKClient wires the authenticator, refresh coordinator and logging
// transport around store. A nil store means an in-memory session.
func NewSDKClient(baseURL string, store CredentialStore, opts ...Option) *SDKClient {
	o := clientOptions{
		base:           http.DefaultTransport,
		timeout:        DefaultTimeout,
		refreshTimeout: DefaultRefreshTimeout,
		logger:         slog.Default(),
		publicPaths:    DefaultPublicPaths,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		store = NewMemoryStore()
	}

	logged := slogx.Transport(o.base, o.logger)

	c := &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		store:   store,
		log:     o.logger,
		RefreshClient: &http.Client{
			Transport: logged,
			Timeout:   o.refreshTimeout,
		},
	}

	c.refresher = NewRefresher(RefresherConfig{
		Store:            store,
		Exchange:         c.exchangeRefreshToken,
		Timeout:          o.refreshTimeout,
		Logger:           o.logger,
		Metrics:          o.metrics,
		OnSessionExpired: o.onExpired,
	})

	c.HTTPClient = &http.Client{
		Timeout: o.timeout,
		Transport: &Transport{
			Base:        logged,
			Store:       store,
			Refresher:   c.refresher,
			PublicPaths: o.publicPaths,
			Logger:      o.logger,
			Metrics:     o.metrics,
		},
	}

	return c
}

// Store returns the CredentialStore the client persists sessions to.
func (c *SDKClient) Store() CredentialStore { return c.store }

// Refresher exposes the coordinator, mostly for its State.
func (c *SDKClient) Refresher() *Refresher { return c.refresher }
