// Package metrics holds the Prometheus collectors exported by the client
// sync engine and the document server. All recorders are nil-safe so
// components can run without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// SyncMetrics records pull, push and repair activity of the sync engine.
type SyncMetrics struct {
	pulls    *prometheus.CounterVec
	pushes   *prometheus.CounterVec
	deletes  *prometheus.CounterVec
	repaired prometheus.Counter
	duration *prometheus.HistogramVec
}

// NewSyncMetrics registers the sync metrics on reg. A nil reg yields a
// recorder that drops everything.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	m := &SyncMetrics{
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsync_sync_pull_total",
			Help: "Pull passes by result.",
		}, []string{"result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsync_sync_push_total",
			Help: "Single-record push attempts by result.",
		}, []string{"result"}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsync_sync_remote_delete_total",
			Help: "Remote delete attempts by result.",
		}, []string{"result"}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tipsync_sync_repaired_total",
			Help: "Records whose author data was backfilled.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tipsync_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.pulls, m.pushes, m.deletes, m.repaired, m.duration)
	return m
}

func (m *SyncMetrics) IncPull(result string) {
	if m == nil || m.pulls == nil {
		return
	}
	m.pulls.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) IncPush(result string) {
	if m == nil || m.pushes == nil {
		return
	}
	m.pushes.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) IncRemoteDelete(result string) {
	if m == nil || m.deletes == nil {
		return
	}
	m.deletes.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) AddRepaired(n int) {
	if m == nil || m.repaired == nil || n <= 0 {
		return
	}
	m.repaired.Add(float64(n))
}

// ObserveDuration records how long op took, measured from start.
func (m *SyncMetrics) ObserveDuration(op string, start time.Time) {
	if m == nil || m.duration == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
