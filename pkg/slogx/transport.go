package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/idx"
)

// Transport wraps base so every outbound request carries an X-Request-ID and
// is logged once it completes. Only method, path, status and timing are
// logged; headers are never written out since they carry bearer tokens.
func Transport(base http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingTransport{base: base, logger: logger}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = idx.New().String()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, reqID)
	}

	logger := FromContext(req.Context(), t.logger).With(
		"req_id", reqID,
		"method", req.Method,
		"path", req.URL.Path,
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logger.Warn("http_client_request_failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"err", err,
		)
		return nil, err
	}

	logger.Debug("http_client_request",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
