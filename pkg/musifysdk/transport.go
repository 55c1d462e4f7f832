package musifysdk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// RetryMarkerHeader marks a request already replayed after a refresh. A 401
// on a marked request is final.
const RetryMarkerHeader = "X-Retry-Attempted"

// DefaultPublicPaths are the path suffixes sent without a bearer token.
var DefaultPublicPaths = []string{"/auth/login", "/auth/register", "/auth/refresh"}

type noRefreshKey struct{}

// withoutRefresh makes Transport return a 401 as-is instead of refreshing.
func withoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRefreshKey{}, true)
}

func refreshDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRefreshKey{}).(bool)
	return v
}

// Transport attaches the stored access token to outgoing requests and, on a
// 401, lets the Refresher renew the session and replays the request once.
type Transport struct {
	Base      http.RoundTripper
	Store     CredentialStore
	Refresher *Refresher

	// PublicPaths defaults to DefaultPublicPaths.
	PublicPaths []string

	Logger  *slog.Logger
	Metrics *Metrics
}

// RoundTrip sends req with the stored bearer token. A 401 on a request that
// was not already replayed triggers one refresh and one replay.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isPublic(req.URL.Path) {
		return t.base().RoundTrip(req)
	}

	ctx := req.Context()
	token := t.accessToken(ctx)

	out := req.Clone(ctx)
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if req.Header.Get(RetryMarkerHeader) != "" || refreshDisabled(ctx) || t.Refresher == nil {
		return resp, nil
	}

	outcome, err := t.Refresher.Refresh(ctx, token)
	if err != nil {
		drainAndClose(resp)
		return nil, err
	}
	if outcome.Kind != RefreshSucceeded {
		drainAndClose(resp)
		return nil, outcome.failure()
	}

	retry, ok := replayRequest(req, outcome.Session.AccessToken)
	if !ok {
		t.logger().Warn("request body not replayable, returning original 401",
			"method", req.Method,
			"path", req.URL.Path,
		)
		return resp, nil
	}
	drainAndClose(resp)

	t.Metrics.replayed()
	return t.base().RoundTrip(retry)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t *Transport) isPublic(path string) bool {
	paths := t.PublicPaths
	if paths == nil {
		paths = DefaultPublicPaths
	}
	path = strings.TrimSuffix(path, "/")
	for _, p := range paths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

// accessToken treats a failing store like an empty one.
func (t *Transport) accessToken(ctx context.Context) string {
	s, err := t.Store.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			t.logger().Warn("failed to read session, sending request unauthenticated", "err", err)
		}
		return ""
	}
	return s.AccessToken
}

// replayRequest clones req with the new token and the retry marker. It
// reports false when the body was consumed and cannot be recreated.
func replayRequest(req *http.Request, token string) (*http.Request, bool) {
	out := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, false
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		out.Body = body
	}
	out.Header.Set("Authorization", "Bearer "+token)
	out.Header.Set(RetryMarkerHeader, "true")
	return out, true
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
