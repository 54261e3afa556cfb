// Package metrics exposes Prometheus metrics for neighbor queries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry holds the metric collectors on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	registry *prometheus.Registry

	QueriesTotal       *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
	ResultSize         prometheus.Histogram
	StaleResultsTotal  prometheus.Counter
	IndexBuildDuration *prometheus.HistogramVec
	PointsLoaded       prometheus.Gauge
}

// NewRegistry creates a Registry with all collectors registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initQueryMetrics()
	r.initIndexMetrics()
	return r
}

func (r *Registry) initQueryMetrics() {
	r.QueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnview_queries_total",
			Help: "Total number of neighbor queries executed",
		},
		[]string{"index", "status"},
	)

	r.QueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nnview_query_duration_seconds",
			Help:    "Neighbor query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.004, 0.016, 0.05, 0.25},
		},
		[]string{"index"},
	)

	r.ResultSize = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nnview_result_size",
			Help:    "Number of neighbors returned per query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	r.StaleResultsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nnview_stale_results_total",
			Help: "Asynchronous query results discarded because a newer result was already applied",
		},
	)
}

func (r *Registry) initIndexMetrics() {
	r.IndexBuildDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nnview_index_build_duration_seconds",
			Help:    "Index build duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10},
		},
		[]string{"index"},
	)

	r.PointsLoaded = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nnview_points_loaded",
			Help: "Number of points in the active point set",
		},
	)
}

// RecordQuery records a neighbor query.
func (r *Registry) RecordQuery(index, status string, duration time.Duration, size int) {
	if r == nil {
		return
	}
	r.QueriesTotal.WithLabelValues(index, status).Inc()
	r.QueryDuration.WithLabelValues(index).Observe(duration.Seconds())
	if status == StatusOK {
		r.ResultSize.Observe(float64(size))
	}
}

// RecordStale counts a discarded asynchronous result.
func (r *Registry) RecordStale() {
	if r == nil {
		return
	}
	r.StaleResultsTotal.Inc()
}

// RecordBuild records an index build over points.
func (r *Registry) RecordBuild(index string, points int, duration time.Duration) {
	if r == nil {
		return
	}
	r.IndexBuildDuration.WithLabelValues(index).Observe(duration.Seconds())
	r.PointsLoaded.Set(float64(points))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
