package submission

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/generator"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
)

// blocksPerWorker splits the task list finer than the worker count so a
// few slow tasks do not leave workers idle.
const blocksPerWorker = 5

// Runner tries every generator on every task in parallel.
type Runner struct {
	patents    *patents.Reader
	index      *index.Reader
	generators []generator.Generator
	cfg        config.SynthesisConfig
	search     config.SearchConfig
	metrics    *metrics.Metrics
	runID      string

	sink      string
	sinkCfg   config.ReportingConfig
	rawReport Reporter
	reporter  *GuardedReporter
	writers   []ResultWriter

	mu         sync.Mutex
	totalScore float64
	processed  int
}

type Option func(*Runner)

// WithReporter sends progress to rep, guarded per cfg.
func WithReporter(rep Reporter, sink string, cfg config.ReportingConfig) Option {
	return func(r *Runner) {
		r.rawReport = rep
		r.sink = sink
		r.sinkCfg = cfg
	}
}

// WithResultWriter passes every finished task to w. Failures are logged.
func WithResultWriter(w ResultWriter) Option {
	return func(r *Runner) { r.writers = append(r.writers, w) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithRunID tags the run with id instead of a fresh UUID, so sinks built
// before the run can carry the same identifier.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithSearchConfig overrides the evaluator limits used for scoring.
func WithSearchConfig(cfg config.SearchConfig) Option {
	return func(r *Runner) { r.search = cfg }
}

func NewRunner(pr *patents.Reader, ir *index.Reader, gens []generator.Generator, cfg config.SynthesisConfig, opts ...Option) *Runner {
	r := &Runner{
		patents:    pr,
		index:      ir,
		generators: gens,
		cfg:        cfg,
		search: config.SearchConfig{
			MatchCeiling: searcher.DefaultMatchCeiling,
			ResultLimit:  searcher.DefaultResultLimit,
		},
		rawReport: NopReporter{},
		sink:      "none",
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reporter = Guard(r.rawReport, r.sink, r.sinkCfg, r.metrics)
	return r
}

// GeneratorWins counts the tasks whose best query came from Generator.
type GeneratorWins struct {
	Generator string
	Tasks     int
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Tasks     int
	MeanScore float64
	Wins      []GeneratorWins
	Elapsed   time.Duration
}

// Run processes tasks in contiguous blocks, each with its own index
// session, evaluator and patent reader. Tasks are updated in place.
func (r *Runner) Run(ctx context.Context, tasks []*Task) (*Summary, error) {
	start := time.Now()
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "runner")

	names := make([]string, len(r.generators))
	for i, g := range r.generators {
		names[i] = g.Name()
	}
	workers := max(1, min(r.cfg.Workers, len(tasks)))
	r.reporter.Init(ctx, workers, len(tasks), names)
	defer r.reporter.Close()
	log.Info("finding best queries",
		"tasks", len(tasks), "workers", workers, "generators", len(r.generators))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, b := range blockRanges(len(tasks), workers*blocksPerWorker) {
		b := b
		g.Go(func() error {
			return r.runBlock(gctx, log, tasks[b[0]:b[1]])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := r.summarize(runID, tasks, time.Since(start))
	for _, w := range summary.Wins {
		log.Info("best query generator", "generator", w.Generator, "tasks", w.Tasks)
	}
	log.Info("synthesis complete",
		"tasks", summary.Tasks,
		"mean_score", fmt.Sprintf("%.3f", summary.MeanScore),
		"elapsed", summary.Elapsed)
	return summary, nil
}

// blockRanges splits [0, n) into at most blocks contiguous ranges.
func blockRanges(n, blocks int) [][2]int {
	if n == 0 {
		return nil
	}
	blocks = max(1, min(blocks, n))
	out := make([][2]int, 0, blocks)
	size, extra := n/blocks, n%blocks
	lo := 0
	for i := 0; i < blocks; i++ {
		hi := lo + size
		if i < extra {
			hi++
		}
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return out
}

func (r *Runner) runBlock(ctx context.Context, log *slog.Logger, tasks []*Task) error {
	pr, err := r.patents.Clone()
	if err != nil {
		return fmt.Errorf("cloning patent reader: %w", err)
	}
	defer pr.Close()
	si, err := r.index.NewSearchIndex()
	if err != nil {
		return fmt.Errorf("opening index session: %w", err)
	}
	defer si.Close()
	s := searcher.New(si,
		searcher.WithMatchCeiling(r.search.MatchCeiling),
		searcher.WithResultLimit(r.search.ResultLimit),
		searcher.WithMetrics(r.metrics),
		searcher.WithLogger(log),
	)
	in := generator.Input{Patents: pr, Index: si, Searcher: s}

	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runTask(ctx, log, t, in); err != nil {
			return err
		}
		si.ClearCache()
		s.ClearCache()
		r.record(log, t)
	}
	return nil
}

// runTask tries generators in order while the task is within its time
// budget. A failing generator is logged and skipped.
func (r *Runner) runTask(ctx context.Context, log *slog.Logger, t *Task, in generator.Input) error {
	start := time.Now()
	ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(
		"task", t.ID, "publication_number", t.PublicationNumber))
	for i, gen := range r.generators {
		if elapsed := time.Since(start); r.cfg.TaskTimeout > 0 && elapsed >= r.cfg.TaskTimeout {
			log.Info("task time budget exhausted",
				"task", t.ID,
				"publication_number", t.PublicationNumber,
				"next_generator", gen.Name(),
				"skipped", len(r.generators)-i,
				"elapsed", elapsed)
			break
		}

		a, err := t.TryGenerator(ctx, gen, in)
		r.metrics.ObserveGenerator(a.Generator, a.Elapsed)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("generator failed",
				"task", t.ID,
				"publication_number", t.PublicationNumber,
				"generator", a.Generator,
				"error", err)
			continue
		}
		r.reporter.ReportGenerator(ctx, t.ID, a.Generator, a.Score, a.Elapsed.Seconds())
	}

	r.reporter.ReportTask(ctx, t.ID, t.BestGenerator, t.BestScore, time.Since(start).Seconds())
	r.metrics.ObserveTask(t.BestGenerator, t.BestScore)
	for _, w := range r.writers {
		if err := w.WriteResult(ctx, t); err != nil {
			log.Warn("writing task result", "task", t.ID, "error", err)
		}
	}
	return nil
}

func (r *Runner) record(log *slog.Logger, t *Task) {
	r.mu.Lock()
	r.totalScore += t.BestScore
	r.processed++
	processed, mean := r.processed, r.totalScore/float64(r.processed)
	r.mu.Unlock()

	log.Debug("task processed",
		"task", t.ID,
		"generator", t.BestGenerator,
		"score", t.BestScore,
		"processed", processed,
		"mean_score", fmt.Sprintf("%.3f", mean))
}

func (r *Runner) summarize(runID string, tasks []*Task, elapsed time.Duration) *Summary {
	counts := make(map[string]int)
	var total float64
	for _, t := range tasks {
		counts[t.BestGenerator]++
		total += t.BestScore
	}
	wins := make([]GeneratorWins, 0, len(counts))
	for name, n := range counts {
		wins = append(wins, GeneratorWins{Generator: name, Tasks: n})
	}
	sort.Slice(wins, func(i, j int) bool {
		if wins[i].Tasks != wins[j].Tasks {
			return wins[i].Tasks > wins[j].Tasks
		}
		return wins[i].Generator < wins[j].Generator
	})

	s := &Summary{RunID: runID, Tasks: len(tasks), Wins: wins, Elapsed: elapsed}
	if len(tasks) > 0 {
		s.MeanScore = total / float64(len(tasks))
	}
	return s
}
