package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DocumentMetrics counts document store RPCs on the server.
type DocumentMetrics struct {
	requests *prometheus.CounterVec
	docs     *prometheus.HistogramVec
}

func NewDocumentMetrics(reg prometheus.Registerer) *DocumentMetrics {
	if reg == nil {
		return &DocumentMetrics{}
	}
	m := &DocumentMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsync_documents_requests_total",
			Help: "Document store RPCs by method and status code.",
		}, []string{"method", "code"}),
		docs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tipsync_documents_query_results",
			Help:    "Number of documents returned by queries.",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000},
		}, []string{"collection"}),
	}
	reg.MustRegister(m.requests, m.docs)
	return m
}

func (m *DocumentMetrics) IncRequest(method, code string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(method, code).Inc()
}

func (m *DocumentMetrics) ObserveQueryResults(collection string, n int) {
	if m == nil || m.docs == nil {
		return
	}
	m.docs.WithLabelValues(collection).Observe(float64(n))
}
