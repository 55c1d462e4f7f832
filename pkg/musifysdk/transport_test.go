package musifysdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func getProtected(t *testing.T, client *SDKClient, api *testAPI) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, api.url("/api/protected"), nil)
	require.NoError(t, err)
	return client.HTTPClient.Do(req)
}

func decodeProtected(t *testing.T, resp *http.Response) protectedResponse {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out protectedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestTransportWithoutSessionSendsNoAuthorization(t *testing.T) {
	headers := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, NewMemoryStore())

	resp, err := client.HTTPClient.Get(srv.URL + "/api/songs")
	require.NoError(t, err)
	drainAndClose(resp)

	require.Empty(t, <-headers)
}

func TestTransportSkipsTokenOnPublicPaths(t *testing.T) {
	type seen struct {
		path string
		auth string
	}
	requests := make(chan seen, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- seen{path: r.URL.Path, auth: r.Header.Get("Authorization")}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	store := seededStore(t, Session{AccessToken: "access-1", RefreshToken: "refresh-1"})
	client := newTestClient(t, srv.URL, store)

	tests := []struct {
		path     string
		wantAuth string
	}{
		{"/api/songs", "Bearer access-1"},
		{"/api/auth/login", ""},
		{"/api/auth/register", ""},
		{"/api/auth/refresh/", ""},
		{"/api/auth/logout", "Bearer access-1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.HTTPClient.Post(srv.URL+tt.path, "application/json", strings.NewReader("{}"))
			require.NoError(t, err)
			drainAndClose(resp)

			got := <-requests
			require.Equal(t, tt.path, got.path)
			require.Equal(t, tt.wantAuth, got.auth)
		})
	}
}

func TestTransportConcurrent401sShareOneRefresh(t *testing.T) {
	api := newTestAPI(t)
	release := make(chan struct{})
	api.configure(func(api *testAPI) { api.release = release })

	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})
	client := newTestClient(t, api.server.URL, store)

	const n = 5
	results := make(chan error, n)
	for range n {
		go func() {
			resp, err := getProtected(t, client, api)
			if err == nil {
				if resp.StatusCode != http.StatusOK {
					err = errors.New(resp.Status)
				}
				drainAndClose(resp)
			}
			results <- err
		}()
	}

	require.Eventually(t, func() bool {
		return api.unauthorized.Load() == n
	}, 5*time.Second, 5*time.Millisecond)
	close(release)

	for range n {
		require.NoError(t, <-results)
	}
	require.Equal(t, int32(1), api.refreshCalls.Load())
	require.Equal(t, "refresh-1", <-api.refreshTokens)

	s, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", s.AccessToken)
	require.Equal(t, "refresh-1", s.RefreshToken, "refresh token kept when the server does not rotate it")
	require.Equal(t, StateIdle, client.Refresher().State())
}

func TestTransportReplayCarriesRetryMarker(t *testing.T) {
	api := newTestAPI(t)
	api.configure(func(api *testAPI) { api.rotate = true })

	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})
	client := newTestClient(t, api.server.URL, store)

	resp, err := getProtected(t, client, api)
	require.NoError(t, err)

	out := decodeProtected(t, resp)
	require.Equal(t, "true", out.Retried)

	s, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", s.AccessToken)
	require.Equal(t, "rotated-1", s.RefreshToken)
}

func TestTransportSecond401IsFinal(t *testing.T) {
	api := newTestAPI(t)
	api.configure(func(api *testAPI) { api.alwaysReject = true })

	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})
	client := newTestClient(t, api.server.URL, store)

	resp, err := getProtected(t, client, api)
	require.NoError(t, err)
	drainAndClose(resp)

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), api.refreshCalls.Load())
	require.Equal(t, int32(2), api.unauthorized.Load())
}

func TestTransportRejectedRefreshExpiresEveryWaiter(t *testing.T) {
	api := newTestAPI(t)
	release := make(chan struct{})
	api.configure(func(api *testAPI) {
		api.release = release
		api.refreshStatus = http.StatusUnauthorized
	})

	var expired atomic.Int32
	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-revoked"})
	client := newTestClient(t, api.server.URL, store,
		WithSessionExpiredHandler(func() { expired.Add(1) }),
	)

	const n = 5
	results := make(chan error, n)
	for range n {
		go func() {
			resp, err := getProtected(t, client, api)
			if err == nil {
				drainAndClose(resp)
			}
			results <- err
		}()
	}

	require.Eventually(t, func() bool {
		return api.unauthorized.Load() == n
	}, 5*time.Second, 5*time.Millisecond)
	close(release)

	for range n {
		err := <-results
		require.ErrorIs(t, err, ErrSessionExpired)
		require.True(t, NeedsReauthentication(err))
	}

	require.Equal(t, int32(1), api.refreshCalls.Load())
	require.Equal(t, int32(1), expired.Load())
	requireNoSession(t, store)
}

func TestTransportNetworkFailureExpiresSession(t *testing.T) {
	api := newTestAPI(t)
	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})

	refresher := NewRefresher(RefresherConfig{
		Store: store,
		Exchange: func(context.Context, string) (Session, error) {
			return Session{}, mapTransportError(errors.New("connection refused"))
		},
		Logger: slogx.Discard(),
	})
	client := &http.Client{Transport: &Transport{
		Store:     store,
		Refresher: refresher,
		Logger:    slogx.Discard(),
	}}

	_, err := client.Get(api.url("/api/protected"))
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, ErrNetwork)

	requireNoSession(t, store)
	require.Equal(t, StateIdle, refresher.State())
}

func TestTransportWithoutRefreshTokenLogsOut(t *testing.T) {
	api := newTestAPI(t)
	store := seededStore(t, Session{AccessToken: "access-stale"})
	client := newTestClient(t, api.server.URL, store)

	_, err := getProtected(t, client, api)
	require.ErrorIs(t, err, ErrSessionExpired)

	require.Zero(t, api.refreshCalls.Load())
	require.Equal(t, StateLoggedOut, client.Refresher().State())
	requireNoSession(t, store)
}

func TestTransportReplaysRequestBody(t *testing.T) {
	api := newTestAPI(t)
	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})
	client := newTestClient(t, api.server.URL, store)

	req, err := http.NewRequest(http.MethodPost, api.url("/api/protected"), strings.NewReader(`{"playlist":"chill"}`))
	require.NoError(t, err)

	resp, err := client.HTTPClient.Do(req)
	require.NoError(t, err)

	out := decodeProtected(t, resp)
	require.Equal(t, `{"playlist":"chill"}`, out.Body)
	require.Equal(t, "true", out.Retried)
}

func TestTransportNonReplayableBodyReturnsOriginal401(t *testing.T) {
	api := newTestAPI(t)
	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})
	client := newTestClient(t, api.server.URL, store)

	body := io.NopCloser(strings.NewReader("upload"))
	req, err := http.NewRequest(http.MethodPost, api.url("/api/protected"), body)
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := client.HTTPClient.Do(req)
	require.NoError(t, err)
	drainAndClose(resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The session was still renewed for the next request.
	s, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", s.AccessToken)
}

func TestTransportRefreshDisabledByContext(t *testing.T) {
	api := newTestAPI(t)
	store := seededStore(t, Session{AccessToken: "access-stale", RefreshToken: "refresh-1"})
	client := newTestClient(t, api.server.URL, store)

	ctx := withoutRefresh(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.url("/api/protected"), nil)
	require.NoError(t, err)

	resp, err := client.HTTPClient.Do(req)
	require.NoError(t, err)
	drainAndClose(resp)

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, api.refreshCalls.Load())
}
