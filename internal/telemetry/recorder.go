// Package telemetry exports Prometheus metrics about refresh cycles.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stepctl"

// Recorder holds the engine and gate collectors.
type Recorder struct {
	refreshes        *prometheus.CounterVec
	settled          *prometheus.CounterVec
	staleCompletions *prometheus.CounterVec
	authRequests     *prometheus.CounterVec
	injections       *prometheus.CounterVec
	queryDuration    prometheus.Histogram
	lastValue        prometheus.Gauge
}

// NewRecorder registers the collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles started, by whether they superseded one in flight.",
		}, []string{"superseded"}),
		settled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settled_total",
			Help:      "Refresh cycles settled, by outcome.",
		}, []string{"outcome"}),
		staleCompletions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_completions_total",
			Help:      "Store completions discarded because a newer cycle had started.",
		}, []string{"stage"}),
		authRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_requests_total",
			Help:      "Authorization requests sent to the health store.",
		}, []string{"metric"}),
		injections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthetic_samples_total",
			Help:      "Synthetic samples written, by result.",
		}, []string{"result"}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Wall time of aggregate queries against the health store.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		lastValue: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_value",
			Help:      "Most recent successfully settled reading.",
		}),
	}
}

// RefreshStarted counts a new cycle.
func (r *Recorder) RefreshStarted(superseded bool) {
	label := "false"
	if superseded {
		label = "true"
	}
	r.refreshes.WithLabelValues(label).Inc()
}

// Settled counts a settled cycle. value is only recorded for readings,
// including empty ones.
func (r *Recorder) Settled(outcome string, value float64) {
	r.settled.WithLabelValues(outcome).Inc()
	if outcome == "success" || outcome == "empty" {
		r.lastValue.Set(value)
	}
}

// StaleCompletion counts a discarded completion.
func (r *Recorder) StaleCompletion(stage string) {
	r.staleCompletions.WithLabelValues(stage).Inc()
}

// AuthorizationRequested counts a store authorization request.
func (r *Recorder) AuthorizationRequested(metric string) {
	r.authRequests.WithLabelValues(metric).Inc()
}

// SyntheticWritten counts a synthetic sample write.
func (r *Recorder) SyntheticWritten(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.injections.WithLabelValues(result).Inc()
}

// QueryObserved records how long a store query took.
func (r *Recorder) QueryObserved(d time.Duration) {
	r.queryDuration.Observe(d.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
