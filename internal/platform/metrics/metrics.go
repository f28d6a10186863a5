// Package metrics exposes Prometheus instrumentation for the scheduler.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for kanjidrill.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Scheduling metrics
	ReviewsRecorded *prometheus.CounterVec
	StudyListItems  *prometheus.CounterVec
	StudyListSize   prometheus.Histogram
	CardsByState    *prometheus.GaugeVec

	// Storage metrics
	StorageAnomalies *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics with the default registry.
// Repeated calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			ReviewsRecorded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kanjidrill_reviews_recorded_total",
					Help: "Total number of review outcomes recorded",
				},
				[]string{"rating", "state"},
			),
			StudyListItems: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kanjidrill_study_list_items_total",
					Help: "Total number of items placed in study lists",
				},
				[]string{"kind"}, // kind: due, new
			),
			StudyListSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "kanjidrill_study_list_size",
					Help:    "Number of items in each built study list",
					Buckets: prometheus.LinearBuckets(0, 5, 11), // 0 to 50
				},
			),
			CardsByState: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "kanjidrill_cards",
					Help: "Number of stored cards by state at the last statistics read",
				},
				[]string{"state"},
			),
			StorageAnomalies: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kanjidrill_storage_anomalies_total",
					Help: "Storage anomalies such as corrupt collections or unreachable media",
				},
				[]string{"collection", "kind"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kanjidrill_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "kanjidrill_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
		}
	})

	return sharedMetrics
}

// RecordReview counts a recorded outcome by rating and resulting state.
func (m *Metrics) RecordReview(rating, state string) {
	if m == nil {
		return
	}
	m.ReviewsRecorded.WithLabelValues(rating, state).Inc()
}

// RecordStudyList records the composition of a built study list.
func (m *Metrics) RecordStudyList(due, fresh int) {
	if m == nil {
		return
	}
	m.StudyListItems.WithLabelValues("due").Add(float64(due))
	m.StudyListItems.WithLabelValues("new").Add(float64(fresh))
	m.StudyListSize.Observe(float64(due + fresh))
}

// SetCardsByState publishes the latest per-state card counts.
func (m *Metrics) SetCardsByState(counts map[string]int) {
	if m == nil {
		return
	}
	for state, n := range counts {
		m.CardsByState.WithLabelValues(state).Set(float64(n))
	}
}

// RecordStorageAnomaly implements store.AnomalyRecorder.
func (m *Metrics) RecordStorageAnomaly(collection, kind string) {
	if m == nil {
		return
	}
	m.StorageAnomalies.WithLabelValues(collection, kind).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
