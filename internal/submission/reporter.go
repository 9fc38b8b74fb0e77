package submission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/resilience"
)

// Reporter receives progress of a synthesis run.
type Reporter interface {
	Init(ctx context.Context, workers, taskCount int, generators []string) error
	ReportGenerator(ctx context.Context, task int, generator string, score, seconds float64) error
	ReportTask(ctx context.Context, task int, generator string, score, seconds float64) error
	Close() error
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Init(context.Context, int, int, []string) error { return nil }

func (NopReporter) ReportGenerator(context.Context, int, string, float64, float64) error { return nil }

func (NopReporter) ReportTask(context.Context, int, string, float64, float64) error { return nil }

func (NopReporter) Close() error { return nil }

// GuardedReporter isolates a run from its reporter: calls are retried,
// short-circuited while the sink keeps failing, and errors are logged
// instead of returned.
type GuardedReporter struct {
	inner   Reporter
	sink    string
	breaker *resilience.Breaker
	retry   resilience.Backoff
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Guard wraps inner. sink labels logs and metrics.
func Guard(inner Reporter, sink string, cfg config.ReportingConfig, m *metrics.Metrics) *GuardedReporter {
	breaker := resilience.NewBreaker("reporter-"+sink,
		resilience.BreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			Cooldown:         cfg.ResetTimeout,
		},
		resilience.OnStateChange(func(name string, state resilience.State) {
			m.SetBreakerState(name, int(state))
		}),
	)
	return &GuardedReporter{
		inner:   inner,
		sink:    sink,
		breaker: breaker,
		retry: resilience.Backoff{
			Attempts: 2,
			Initial:  50 * time.Millisecond,
			Max:      time.Second,
			Retryable: func(err error) bool {
				return !errors.Is(err, resilience.ErrCircuitOpen)
			},
		},
		metrics: m,
		logger:  logger.WithComponent("reporter").With("sink", sink),
	}
}

func (g *GuardedReporter) call(ctx context.Context, op string, fn func() error, attrs ...any) {
	err := g.retry.Do(ctx, "report-"+op, func() error {
		return g.breaker.Do(fn)
	})
	if err == nil {
		return
	}
	g.metrics.IncReporterError(g.sink)
	g.logger.Warn("progress report failed", append([]any{"op", op, "error", err}, attrs...)...)
}

func (g *GuardedReporter) Init(ctx context.Context, workers, taskCount int, generators []string) {
	g.call(ctx, "init", func() error {
		return g.inner.Init(ctx, workers, taskCount, generators)
	}, "tasks", taskCount, "generators", len(generators))
}

func (g *GuardedReporter) ReportGenerator(ctx context.Context, task int, generator string, score, seconds float64) {
	g.call(ctx, "generator", func() error {
		return g.inner.ReportGenerator(ctx, task, generator, score, seconds)
	}, "task", task, "generator", generator)
}

func (g *GuardedReporter) ReportTask(ctx context.Context, task int, generator string, score, seconds float64) {
	g.call(ctx, "task", func() error {
		return g.inner.ReportTask(ctx, task, generator, score, seconds)
	}, "task", task, "generator", generator)
}

// Close logs how many reports the breaker dropped. It does not close the
// inner reporter, which belongs to the caller.
func (g *GuardedReporter) Close() {
	if st := g.breaker.Stats(); st.Rejected > 0 {
		g.logger.Warn("reports dropped while sink was unavailable",
			"rejected", st.Rejected, "state", st.State)
	}
}
