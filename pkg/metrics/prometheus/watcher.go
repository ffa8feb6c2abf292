package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/nestfs/pkg/metrics"
	"github.com/marmos91/nestfs/pkg/watcher"
)

// watcherMetrics is the Prometheus implementation of watcher.Metrics.
type watcherMetrics struct {
	events        *prometheus.CounterVec
	probes        prometheus.Counter
	probeDuration prometheus.Histogram
	watched       prometheus.Gauge
}

// NewWatcherMetrics creates a Prometheus-backed watcher.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewWatcherMetrics() watcher.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newWatcherMetrics(metrics.GetRegistry())
}

func newWatcherMetrics(reg prometheus.Registerer) *watcherMetrics {
	return &watcherMetrics{
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestfs_watcher_events_total",
				Help: "Total number of handled filesystem events by operation",
			},
			[]string{"op"},
		),
		probes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nestfs_watcher_probes_total",
				Help: "Total number of debounced probes fired by the watcher",
			},
		),
		probeDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "nestfs_watcher_probe_duration_milliseconds",
				Help: "Duration of watcher-initiated probes in milliseconds",
				Buckets: []float64{
					1,     // 1ms
					5,     // 5ms
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s
					10000, // 10s - deep subtrees
				},
			},
		),
		watched: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nestfs_watcher_watched_directories",
				Help: "Number of directories currently under watch",
			},
		),
	}
}

func (m *watcherMetrics) RecordEvent(op string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(op).Inc()
}

func (m *watcherMetrics) RecordProbe(durationMs float64) {
	if m == nil {
		return
	}
	m.probes.Inc()
	m.probeDuration.Observe(durationMs)
}

func (m *watcherMetrics) SetWatchCount(n int) {
	if m == nil {
		return
	}
	m.watched.Set(float64(n))
}
