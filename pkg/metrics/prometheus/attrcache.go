// Package prometheus provides the Prometheus-backed implementations of the
// per-package Metrics interfaces. Constructors return nil until
// metrics.InitRegistry has been called, so wiring them unconditionally keeps
// instrumentation optional.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/metrics"
)

// attrCacheMetrics is the Prometheus implementation of attrcache.Metrics.
type attrCacheMetrics struct {
	reads       *prometheus.CounterVec
	repairs     *prometheus.CounterVec
	hashCommits *prometheus.CounterVec
	sniffs      prometheus.Counter
}

// NewAttrCacheMetrics creates a Prometheus-backed attrcache.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewAttrCacheMetrics() attrcache.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newAttrCacheMetrics(metrics.GetRegistry())
}

func newAttrCacheMetrics(reg prometheus.Registerer) *attrCacheMetrics {
	return &attrCacheMetrics{
		reads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestfs_attrcache_reads_total",
				Help: "Total number of identity record reads by entry type and repair status",
			},
			[]string{"entry_type", "repaired"}, // entry_type: "file", "directory"
		),
		repairs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestfs_attrcache_repairs_total",
				Help: "Total number of identity record repairs by reason",
			},
			[]string{"reason"},
		),
		hashCommits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestfs_attrcache_hash_commits_total",
				Help: "Total number of digest commit attempts by outcome",
			},
			[]string{"outcome"}, // "committed", "stale_timestamp", "identity_mismatch", "error"
		),
		sniffs: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nestfs_attrcache_sniffs_total",
				Help: "Total number of content type sniffs",
			},
		),
	}
}

func (m *attrCacheMetrics) RecordRead(entryType string, repaired bool) {
	if m == nil {
		return
	}
	status := "no"
	if repaired {
		status = "yes"
	}
	m.reads.WithLabelValues(entryType, status).Inc()
}

func (m *attrCacheMetrics) RecordRepair(reason string) {
	if m == nil {
		return
	}
	m.repairs.WithLabelValues(reason).Inc()
}

func (m *attrCacheMetrics) RecordHashCommit(outcome string) {
	if m == nil {
		return
	}
	m.hashCommits.WithLabelValues(outcome).Inc()
}

func (m *attrCacheMetrics) RecordSniff() {
	if m == nil {
		return
	}
	m.sniffs.Inc()
}
