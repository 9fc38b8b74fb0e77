package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSearch(OutcomeRanked, time.Millisecond, 50)
		m.ObserveGenerator("single-term", time.Second)
		m.ObserveTask("fp-growth", 0.5)
		m.AddIndexTerms("ti", 10)
		m.ObserveIndexBuild(time.Minute)
		m.IncPatentsImported()
		m.IncReporterError("postgres")
		m.SetBreakerState("reporter", 1)
	})
}

func TestCollectorsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSearch(OutcomeCached, 0, 0)
	m.ObserveSearch(OutcomeCached, 0, 0)
	m.ObserveSearch(OutcomeTooBroad, time.Millisecond, 0)
	m.ObserveTask("best-effort", 0.75)
	m.ObserveTask("best-effort", 0.25)
	m.AddIndexTerms("cpc", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(OutcomeCached)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(OutcomeTooBroad)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksProcessedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeneratorWinsTotal.WithLabelValues("best-effort")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexTermsWritten.WithLabelValues("cpc")))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
