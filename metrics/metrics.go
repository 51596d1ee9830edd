package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes.
const (
	OutcomeComputed = "computed"
	OutcomeCached   = "cached"
	OutcomeEmpty    = "empty"
)

// Registry holds the Prometheus collectors for dataset loads, view
// evaluations, the view cache and the HTTP API. Each Registry owns its own
// prometheus.Registry so tests and multiple servers never collide.
type Registry struct {
	reg *prometheus.Registry

	// Evaluation metrics
	EvaluationDuration *prometheus.HistogramVec
	Evaluations        *prometheus.CounterVec
	FilteredRecords    prometheus.Histogram

	// Dataset metrics
	DatasetRecords prometheus.Gauge
	RowsSkipped    prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheErrors prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers every collector.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salaryscope_evaluation_duration_seconds",
				Help:    "Duration of one view evaluation in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"outcome"},
		),

		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salaryscope_evaluations_total",
				Help: "Total number of view evaluations by outcome",
			},
			[]string{"outcome"},
		),

		FilteredRecords: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "salaryscope_filtered_records",
				Help:    "Number of records surviving the filters per evaluation",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),

		DatasetRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "salaryscope_dataset_records",
				Help: "Number of records in the loaded dataset",
			},
		),

		RowsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "salaryscope_rows_skipped_total",
				Help: "Total number of malformed source rows skipped while loading",
			},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "salaryscope_cache_hits_total",
				Help: "Total number of view cache hits",
			},
		),

		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "salaryscope_cache_misses_total",
				Help: "Total number of view cache misses",
			},
		),

		CacheErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "salaryscope_cache_errors_total",
				Help: "Total number of view cache failures",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salaryscope_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salaryscope_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	r.reg.MustRegister(
		r.EvaluationDuration,
		r.Evaluations,
		r.FilteredRecords,
		r.DatasetRecords,
		r.RowsSkipped,
		r.CacheHits,
		r.CacheMisses,
		r.CacheErrors,
		r.HTTPRequests,
		r.HTTPDuration,
	)
	return r
}

// ObserveEvaluation records one evaluation.
func (r *Registry) ObserveEvaluation(outcome string, filtered int, d time.Duration) {
	r.Evaluations.WithLabelValues(outcome).Inc()
	r.EvaluationDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome != OutcomeCached {
		r.FilteredRecords.Observe(float64(filtered))
	}
}

// ObserveLoad records a completed dataset load.
func (r *Registry) ObserveLoad(loaded, skipped int) {
	r.DatasetRecords.Set(float64(loaded))
	r.RowsSkipped.Add(float64(skipped))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
