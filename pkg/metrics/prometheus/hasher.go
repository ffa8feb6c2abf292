package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/metrics"
)

// hasherMetrics is the Prometheus implementation of hasher.Metrics.
type hasherMetrics struct {
	enqueued    prometheus.Counter
	dropped     prometheus.Counter
	jobs        *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	queueDepth  prometheus.Gauge
}

// NewHasherMetrics creates a Prometheus-backed hasher.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHasherMetrics() hasher.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newHasherMetrics(metrics.GetRegistry())
}

func newHasherMetrics(reg prometheus.Registerer) *hasherMetrics {
	return &hasherMetrics{
		enqueued: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nestfs_hasher_enqueued_total",
				Help: "Total number of accepted hash requests",
			},
		),
		dropped: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nestfs_hasher_dropped_total",
				Help: "Total number of hash requests dropped because the queue was full",
			},
		),
		jobs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestfs_hasher_jobs_total",
				Help: "Total number of finished hash jobs by outcome",
			},
			[]string{"outcome"}, // "committed", "fresh", "replaced", "stale", "detached", "aborted", "error"
		),
		jobDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nestfs_hasher_job_duration_milliseconds",
				Help: "Duration of hash jobs in milliseconds",
				Buckets: []float64{
					1,     // 1ms - skipped or tiny files
					5,     // 5ms
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s
					30000, // 30s - large media files
					60000, // 1m
				},
			},
			[]string{"outcome"},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nestfs_hasher_queue_depth",
				Help: "Number of hash requests waiting or in flight",
			},
		),
	}
}

func (m *hasherMetrics) RecordEnqueued() {
	if m == nil {
		return
	}
	m.enqueued.Inc()
}

func (m *hasherMetrics) RecordDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *hasherMetrics) RecordOutcome(outcome string, durationMs float64) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
	m.jobDuration.WithLabelValues(outcome).Observe(durationMs)
}

func (m *hasherMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
