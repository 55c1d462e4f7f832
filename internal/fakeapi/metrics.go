package fakeapi

import (
	"net/http"
	"strconv"

	"github.com/Rostanic20/Musify-Frontend/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type serverMetrics struct {
	requests *prometheus.CounterVec
	refresh  *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musify_mock",
			Name:      "http_requests_total",
			Help:      "Requests served by the mock API, by route and status.",
		}, []string{"route", "method", "status"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musify_mock",
			Name:      "refresh_requests_total",
			Help:      "Refresh token exchanges, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.requests, m.refresh)
	return m
}

// middleware counts requests by their chi route pattern so path
// parameters and query strings do not explode the label set.
func (m *serverMetrics) middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		})
	}
}

func (m *serverMetrics) observeRefresh(err error) {
	if err != nil {
		m.refresh.WithLabelValues("rejected").Inc()
		return
	}
	m.refresh.WithLabelValues("ok").Inc()
}
