package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/metrics"
)

// driveMetrics is the Prometheus implementation of drive.Metrics.
type driveMetrics struct {
	changes    *prometheus.CounterVec
	registered prometheus.Gauge
}

// NewDriveMetrics creates a Prometheus-backed drive.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDriveMetrics() drive.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newDriveMetrics(metrics.GetRegistry())
}

func newDriveMetrics(reg prometheus.Registerer) *driveMetrics {
	return &driveMetrics{
		changes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestfs_drives_changes_total",
				Help: "Total number of applied registry mutations by change type",
			},
			[]string{"op"}, // "created", "updated", "deleted"
		),
		registered: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nestfs_drives_registered",
				Help: "Number of drives currently registered",
			},
		),
	}
}

func (m *driveMetrics) RecordChange(op string) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(op).Inc()
}

func (m *driveMetrics) SetDriveCount(n int) {
	if m == nil {
		return
	}
	m.registered.Set(float64(n))
}
