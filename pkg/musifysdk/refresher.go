package musifysdk

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/cryptox"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

// RefreshState is the coordinator's externally visible state.
type RefreshState int32

const (
	StateIdle RefreshState = iota
	StateRefreshing
	StateLoggedOut
)

func (s RefreshState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// RefreshOutcomeKind is the result of one refresh flight.
type RefreshOutcomeKind int

const (
	RefreshSucceeded RefreshOutcomeKind = iota
	RefreshNoToken
	RefreshRejected
	RefreshNetworkFailure
	// RefreshPersistFailed means new tokens arrived but could not be stored.
	RefreshPersistFailed
	// RefreshStoreUnavailable means the stored session could not be read.
	// The store is left as it is.
	RefreshStoreUnavailable
)

func (k RefreshOutcomeKind) String() string {
	switch k {
	case RefreshSucceeded:
		return "succeeded"
	case RefreshNoToken:
		return "no_token"
	case RefreshRejected:
		return "rejected"
	case RefreshNetworkFailure:
		return "network_failure"
	case RefreshPersistFailed:
		return "persist_failed"
	case RefreshStoreUnavailable:
		return "store_unavailable"
	}
	return "unknown"
}

// RefreshOutcome is shared by every caller that waited on the same flight.
type RefreshOutcome struct {
	Kind    RefreshOutcomeKind
	Session Session
	Err     error
}

// failure is the error a failed outcome surfaces to callers.
func (o RefreshOutcome) failure() error {
	if o.Kind == RefreshStoreUnavailable {
		return &Error{
			Kind:    KindStorage,
			Message: "failed to read stored session",
			Err:     o.Err,
		}
	}
	return o.sessionExpired()
}

func (o RefreshOutcome) sessionExpired() error {
	return &Error{
		Kind:       KindSessionExpired,
		Message:    "session expired, please log in again",
		StatusCode: http.StatusUnauthorized,
		Err:        o.Err,
	}
}

// RefreshFunc exchanges a refresh token for a new session. A rejection by
// the server must be reported as an *Error with a non-zero StatusCode; any
// other error counts as a network failure.
type RefreshFunc func(ctx context.Context, refreshToken string) (Session, error)

// DefaultRefreshTimeout bounds one refresh flight.
const DefaultRefreshTimeout = 30 * time.Second

const (
	flightKey    = "refresh"
	clearTimeout = 5 * time.Second
)

// RefresherConfig configures NewRefresher. Store and Exchange are required.
type RefresherConfig struct {
	Store    CredentialStore
	Exchange RefreshFunc

	// Timeout bounds the whole flight. Defaults to DefaultRefreshTimeout.
	Timeout time.Duration

	Logger  *slog.Logger
	Metrics *Metrics

	// OnSessionExpired fires once per failed flight, after the store was cleared.
	OnSessionExpired func()
}

// Refresher makes sure a batch of concurrently expiring requests triggers
// exactly one refresh call, and that a failed refresh logs the user out.
type Refresher struct {
	store     CredentialStore
	exchange  RefreshFunc
	timeout   time.Duration
	log       *slog.Logger
	metrics   *Metrics
	onExpired func()

	group singleflight.Group
	state atomic.Int32
}

// NewRefresher returns an idle Refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRefreshTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Refresher{
		store:     cfg.Store,
		exchange:  cfg.Exchange,
		timeout:   cfg.Timeout,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		onExpired: cfg.OnSessionExpired,
	}
}

// State reports whether a flight is running or the user was logged out.
func (r *Refresher) State() RefreshState { return RefreshState(r.state.Load()) }

func (r *Refresher) setState(s RefreshState) { r.state.Store(int32(s)) }

// markIdle is called after a login stores a fresh session.
func (r *Refresher) markIdle() { r.setState(StateIdle) }

// markLoggedOut is called after logout or a cold start without a session.
func (r *Refresher) markLoggedOut() { r.setState(StateLoggedOut) }

// Refresh returns a session usable in place of staleToken, the access token
// a rejected request carried. If the store already holds a different token
// another caller refreshed in the meantime and no call is made. An empty
// staleToken forces a refresh.
//
// A non-empty staleToken with nothing stored means an earlier flight already
// failed and logged the user out; no new flight starts and OnSessionExpired
// does not fire again.
//
// The flight runs detached from ctx; a non-nil error means only that ctx
// ended before the shared flight finished.
func (r *Refresher) Refresh(ctx context.Context, staleToken string) (RefreshOutcome, error) {
	if staleToken != "" {
		current, err := r.store.Get(ctx)
		switch {
		case err == nil && current.AccessToken != staleToken:
			return RefreshOutcome{Kind: RefreshSucceeded, Session: current}, nil
		case errors.Is(err, ErrNoSession):
			return RefreshOutcome{Kind: RefreshNoToken, Err: err}, nil
		}
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(flightKey, func() (any, error) {
		return r.fly(flightCtx, staleToken), nil
	})

	select {
	case res := <-ch:
		return res.Val.(RefreshOutcome), nil
	case <-ctx.Done():
		return RefreshOutcome{}, ctx.Err()
	}
}

func (r *Refresher) fly(parent context.Context, staleToken string) RefreshOutcome {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	log := slogx.FromContext(ctx, r.log)
	start := time.Now()

	outcome := r.attempt(ctx, staleToken)
	if staleToken != "" && errors.Is(outcome.Err, ErrNoSession) {
		// An earlier flight already logged the user out.
		return outcome
	}
	r.metrics.observeRefresh(outcome.Kind, time.Since(start))

	if outcome.Kind == RefreshStoreUnavailable {
		r.setState(StateIdle)
		log.Error("failed to read session for refresh", "err", outcome.Err)
		return outcome
	}

	if outcome.Kind == RefreshSucceeded {
		r.setState(StateIdle)
		log.Info("session refreshed",
			"refresh_fp", cryptox.ShortFingerprint(outcome.Session.RefreshToken),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return outcome
	}

	clearCtx, cancelClear := context.WithTimeout(parent, clearTimeout)
	defer cancelClear()
	if err := r.store.Clear(clearCtx); err != nil {
		log.Error("failed to clear session after refresh failure", "err", err)
	}

	if outcome.Kind == RefreshNoToken {
		r.setState(StateLoggedOut)
	} else {
		r.setState(StateIdle)
	}

	log.Warn("session refresh failed", "outcome", outcome.Kind.String(), "err", outcome.Err)

	if r.onExpired != nil {
		r.onExpired()
	}
	return outcome
}

func (r *Refresher) attempt(ctx context.Context, staleToken string) RefreshOutcome {
	current, err := r.store.Get(ctx)
	switch {
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrSessionCorrupt):
		return RefreshOutcome{Kind: RefreshNoToken, Err: err}
	case err != nil:
		return RefreshOutcome{Kind: RefreshStoreUnavailable, Err: err}
	}

	// Another flight finished between our 401 and joining this one.
	if staleToken != "" && current.AccessToken != staleToken {
		return RefreshOutcome{Kind: RefreshSucceeded, Session: current}
	}

	if current.RefreshToken == "" {
		return RefreshOutcome{Kind: RefreshNoToken, Err: errors.New("no refresh token stored")}
	}

	r.setState(StateRefreshing)

	next, err := r.exchange(ctx, current.RefreshToken)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			return RefreshOutcome{Kind: RefreshRejected, Err: err}
		}
		return RefreshOutcome{Kind: RefreshNetworkFailure, Err: err}
	}

	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	if next.IssuedAt.IsZero() {
		next.IssuedAt = time.Now().UTC()
	}

	if err := r.store.Set(ctx, next); err != nil {
		return RefreshOutcome{Kind: RefreshPersistFailed, Err: err}
	}
	return RefreshOutcome{Kind: RefreshSucceeded, Session: next}
}
