package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
)

// app carries what every command shares once the config is loaded.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	health  *health.Checker

	stopMetrics func(context.Context) error
}

func fromContext(c *cli.Context) *app {
	return c.App.Metadata["app"].(*app)
}

func main() {
	cliApp := &cli.App{
		Name:  "priorart",
		Usage: "Patent prior-art search and query synthesis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"PA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			reformatCommand(),
			buildIndexCommand(),
			searchCommand(),
			checkQueriesCommand(),
			synthesizeCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	a := &app{cfg: cfg, metrics: metrics.New(nil), health: health.NewChecker()}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata["app"] = a

	if cfg.Metrics.Enabled {
		a.stopMetrics = metrics.StartServer(cfg.Metrics.Port, a.health)
	}
	return nil
}

func teardown(c *cli.Context) error {
	a, ok := c.App.Metadata["app"].(*app)
	if !ok || a.stopMetrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.stopMetrics(ctx)
}
