// Package metrics defines the Prometheus collectors for index builds, query
// evaluation and query synthesis, and exposes an HTTP handler for scraping.
// A nil *Metrics is valid and records nothing, so library code can take one
// unconditionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes recorded by the query evaluator.
const (
	OutcomeCached   = "cached"
	OutcomeTooBroad = "too_broad"
	OutcomeDirect   = "direct"
	OutcomeRanked   = "ranked"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	IndexTermsWritten   *prometheus.CounterVec
	IndexBuildDuration  prometheus.Histogram
	PatentsImported     prometheus.Counter
	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       prometheus.Histogram
	SearchResultsCount  prometheus.Histogram
	GeneratorDuration   *prometheus.HistogramVec
	GeneratorWinsTotal  *prometheus.CounterVec
	TasksProcessedTotal prometheus.Counter
	TaskScore           prometheus.Histogram
	ReporterErrorsTotal *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		IndexTermsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_terms_written_total",
				Help: "Posting lists written to the inverted index by category.",
			},
			[]string{"category"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_build_duration_seconds",
				Help:    "Wall time of a full inverted-index build.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		PatentsImported: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "patents_imported_total",
				Help: "Patent records written to the patent store.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Search queries by outcome (cached, too_broad, direct, ranked, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Uncached search latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per uncached search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),
		GeneratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generator_duration_seconds",
				Help:    "Time spent by one generator on one task.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 20, 40},
			},
			[]string{"generator"},
		),
		GeneratorWinsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generator_wins_total",
				Help: "Tasks whose best query came from each generator.",
			},
			[]string{"generator"},
		),
		TasksProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tasks_processed_total",
				Help: "Synthesis tasks completed.",
			},
		),
		TaskScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "task_best_score",
				Help:    "Best score achieved per task.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		ReporterErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reporter_errors_total",
				Help: "Failed progress report writes by sink.",
			},
			[]string{"sink"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.IndexTermsWritten,
		m.IndexBuildDuration,
		m.PatentsImported,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.GeneratorDuration,
		m.GeneratorWinsTotal,
		m.TasksProcessedTotal,
		m.TaskScore,
		m.ReporterErrorsTotal,
		m.CircuitBreakerState,
	)

	return m
}

func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCached || outcome == OutcomeError {
		return
	}
	m.SearchLatency.Observe(elapsed.Seconds())
	m.SearchResultsCount.Observe(float64(results))
}

func (m *Metrics) ObserveGenerator(name string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GeneratorDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTask(bestGenerator string, score float64) {
	if m == nil {
		return
	}
	m.TasksProcessedTotal.Inc()
	m.TaskScore.Observe(score)
	m.GeneratorWinsTotal.WithLabelValues(bestGenerator).Inc()
}

func (m *Metrics) AddIndexTerms(category string, n int) {
	if m == nil {
		return
	}
	m.IndexTermsWritten.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) ObserveIndexBuild(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IndexBuildDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncPatentsImported() {
	if m == nil {
		return
	}
	m.PatentsImported.Inc()
}

func (m *Metrics) IncReporterError(sink string) {
	if m == nil {
		return
	}
	m.ReporterErrorsTotal.WithLabelValues(sink).Inc()
}

func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
