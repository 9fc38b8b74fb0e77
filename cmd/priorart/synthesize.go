package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/generator"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/submission"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/redis"
)

func synthesizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "synthesize",
		Usage: "Find the best query for every publication in the neighbors file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "neighbors", Usage: "Neighbors CSV (defaults to data.neighborsFile)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Submission CSV (defaults to data.submissionFile)"},
			&cli.IntFlag{Name: "max-tasks", Usage: "Process at most this many rows (defaults to synthesis.maxTasks)"},
		},
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			cfg := a.cfg
			neighbors := stringOr(c.String("neighbors"), cfg.Data.NeighborsFile)
			out := stringOr(c.String("out"), cfg.Data.SubmissionFile)
			maxTasks := cfg.Synthesis.MaxTasks
			if c.IsSet("max-tasks") {
				maxTasks = c.Int("max-tasks")
			}
			if neighbors == "" {
				return fmt.Errorf("no neighbors file configured")
			}

			rows, err := dataset.ReadNeighbors(neighbors, maxTasks)
			if err != nil {
				return err
			}
			tasks := make([]*submission.Task, len(rows))
			for i, row := range rows {
				tasks[i] = submission.NewTask(i, row.PublicationNumber, row.Targets, cfg.Synthesis.FallbackQuery)
			}

			pr, err := patents.Open(cfg.Data.PatentsDir)
			if err != nil {
				return fmt.Errorf("opening patent store: %w", err)
			}
			defer pr.Close()
			ir, err := index.Open(cfg.Data.IndexDir)
			if err != nil {
				return fmt.Errorf("opening index: %w", err)
			}
			defer ir.Close()

			runID := uuid.NewString()
			opts := []submission.Option{
				submission.WithRunID(runID),
				submission.WithMetrics(a.metrics),
				submission.WithSearchConfig(cfg.Search),
			}

			rep, closeSink, err := openReporter(cfg, a.health, runID)
			if err != nil {
				return err
			}
			defer closeSink()
			opts = append(opts, submission.WithReporter(rep, cfg.Reporting.Sink, cfg.Reporting))

			if cfg.Redis.Enabled {
				results, closeRedis, err := openRedisResults(c.Context, cfg.Redis, a.health)
				if err != nil {
					return err
				}
				defer closeRedis()
				opts = append(opts, submission.WithResultWriter(results))
			}

			runner := submission.NewRunner(pr, ir, generator.Defaults(cfg.Synthesis), cfg.Synthesis, opts...)
			if _, err := runner.Run(c.Context, tasks); err != nil {
				return err
			}
			return writeSubmission(c.Context, out, tasks)
		},
	}
}

// openReporter builds the progress sink named by cfg.Reporting.Sink.
// Each opened sink registers a readiness probe with checker.
func openReporter(cfg *config.Config, checker *health.Checker, runID string) (submission.Reporter, func(), error) {
	switch cfg.Reporting.Sink {
	case "postgres":
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		checker.Register("postgres", client.DB.PingContext)
		rep := submission.NewPostgresReporter(client, cfg.Reporting.InitDatabase)
		return rep, func() { closeLogged("postgres reporter", rep.Close) }, nil
	case "kafka":
		checker.Register("kafka", func(ctx context.Context) error { return kafka.Ping(ctx, cfg.Kafka) })
		scores := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.GeneratorScores)
		results := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.TaskResults)
		rep := submission.NewKafkaReporter(runID, scores, results)
		return rep, func() { closeLogged("kafka reporter", rep.Close) }, nil
	default:
		return submission.NopReporter{}, func() {}, nil
	}
}

func openRedisResults(ctx context.Context, cfg config.RedisConfig, checker *health.Checker) (*submission.RedisResults, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	checker.Register("redis", client.Ping)
	results := submission.NewRedisResults(client, cfg.ResultsKey)
	if err := results.Reset(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}
	return results, func() { closeLogged("redis", client.Close) }, nil
}

// writeSubmission writes every task's best query in task order.
func writeSubmission(ctx context.Context, path string, tasks []*submission.Task) error {
	w, err := submission.CreateCSVFile(path)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := w.WriteResult(ctx, t); err != nil {
			w.Close()
			return fmt.Errorf("writing submission: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing submission: %w", err)
	}
	slog.Info("submission written", "path", path, "tasks", len(tasks))
	return nil
}

func closeLogged(what string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("close failed", "resource", what, "error", err)
	}
}
