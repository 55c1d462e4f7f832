package musifysdk

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records session refresh activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	replays         prometheus.Counter
}

// NewMetrics registers the session collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musify",
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Token refresh flights by outcome.",
		}, []string{"outcome"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "musify",
			Subsystem: "session",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of token refresh flights.",
			Buckets:   prometheus.DefBuckets,
		}),
		replays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "musify",
			Subsystem: "session",
			Name:      "replay_total",
			Help:      "Requests replayed after a 401.",
		}),
	}
}

func (m *Metrics) observeRefresh(kind RefreshOutcomeKind, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(kind.String()).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) replayed() {
	if m == nil {
		return
	}
	m.replays.Inc()
}
