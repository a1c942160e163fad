// Package monitoring holds the Prometheus collectors for requests sent to the
// build server.
package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec
	ResponseSize    *prometheus.HistogramVec
	ClientRecreated prometheus.Counter

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for callers that don't scrape Prometheus
type Snapshot struct {
	TotalRequests int64
	TotalErrors   int64
	TotalDuration time.Duration
}

// NewMetrics registers the collectors on reg. A nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jenkins_client_requests_total",
				Help: "Total number of requests sent to the build server",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jenkins_client_request_duration_seconds",
				Help:    "Request round-trip duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		RequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jenkins_client_request_errors_total",
				Help: "Total number of requests that failed before a response arrived",
			},
			[]string{"method"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jenkins_client_response_size_bytes",
				Help:    "Response body size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method"},
		),
		ClientRecreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jenkins_client_recreated_total",
				Help: "Number of times the shared HTTP client was recreated",
			},
		),
	}
}

// RecordRequest records a completed exchange
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration, size int) {
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method).Observe(float64(size))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration
	m.mu.Unlock()
}

// RecordError records a request that never produced a response
func (m *Metrics) RecordError(method string, duration time.Duration) {
	m.RequestErrors.WithLabelValues(method).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalErrors++
	m.snapshot.TotalDuration += duration
	m.mu.Unlock()
}

// RecordRecreate counts a shared client swap
func (m *Metrics) RecordRecreate() {
	m.ClientRecreated.Inc()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
