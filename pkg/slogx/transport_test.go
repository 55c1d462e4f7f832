package slogx_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rostanic20/Musify-Frontend/pkg/idx"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestTransportStampsRequestID(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(slogx.RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := &http.Client{Transport: slogx.Transport(nil, logger)}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/api/users/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer super-secret")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = idx.Parse(<-seen)
	require.NoError(t, err, "request id should be a ULID")
	require.Empty(t, req.Header.Get(slogx.RequestIDHeader), "caller's request must not be mutated")

	require.Contains(t, buf.String(), `"msg":"http_client_request"`)
	require.Contains(t, buf.String(), `"path":"/api/users/me"`)
	require.NotContains(t, buf.String(), "super-secret")
}

func TestTransportKeepsCallerRequestID(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(slogx.RequestIDHeader)
	}))
	defer srv.Close()

	client := &http.Client{Transport: slogx.Transport(nil, slogx.Discard())}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set(slogx.RequestIDHeader, "caller-id")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "caller-id", <-seen)
}

func TestHTTPMiddlewareEchoesRequestID(t *testing.T) {
	t.Parallel()

	h := slogx.HTTPMiddleware(slogx.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(slogx.RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "abc", rec.Header().Get(slogx.RequestIDHeader))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("nonsense"))
}
