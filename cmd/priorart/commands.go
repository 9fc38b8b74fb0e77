package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/searcher"
)

func reformatCommand() *cli.Command {
	return &cli.Command{
		Name:  "reformat",
		Usage: "Convert a JSONL patent dump into the patent store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "JSONL documents file (defaults to data.documentsFile)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Patent store directory (defaults to data.patentsDir)"},
		},
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			input := stringOr(c.String("input"), a.cfg.Data.DocumentsFile)
			out := stringOr(c.String("out"), a.cfg.Data.PatentsDir)
			if input == "" {
				return fmt.Errorf("no documents file configured")
			}

			docs, err := dataset.OpenJSONLDocuments(input)
			if err != nil {
				return err
			}
			defer docs.Close()
			w, err := patents.Create(out)
			if err != nil {
				return fmt.Errorf("creating patent store: %w", err)
			}
			stats, err := patents.Import(c.Context, docs, w, a.metrics)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			slog.Info("patent store written",
				"dir", out, "written", stats.Written, "skipped", stats.Skipped, "elapsed", stats.Elapsed)
			return nil
		},
	}
}

func buildIndexCommand() *cli.Command {
	return &cli.Command{
		Name:  "build-index",
		Usage: "Build the inverted index over the patent store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Index directory (defaults to data.indexDir)"},
			&cli.StringFlag{Name: "neighbors", Usage: "Restrict the index to the targets listed in this neighbors CSV"},
		},
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			out := stringOr(c.String("out"), a.cfg.Data.IndexDir)

			pr, err := patents.Open(a.cfg.Data.PatentsDir)
			if err != nil {
				return fmt.Errorf("opening patent store: %w", err)
			}
			defer pr.Close()

			pns := pr.PublicationNumbers()
			if path := c.String("neighbors"); path != "" {
				pns, err = validationTargets(pr, path)
				if err != nil {
					return err
				}
			}

			stats, err := index.Build(c.Context, a.cfg.Indexer, pr, pns, out, a.metrics)
			if err != nil {
				return err
			}
			slog.Info("index written", "dir", out, "documents", stats.Documents, "elapsed", stats.Elapsed)
			return nil
		},
	}
}

// validationTargets lists the neighbor targets present in the patent store.
func validationTargets(pr *patents.Reader, path string) ([]string, error) {
	rows, err := dataset.ReadNeighbors(path, 0)
	if err != nil {
		return nil, err
	}
	all := dataset.DistinctTargets(rows)
	out := make([]string, 0, len(all))
	for _, pn := range all {
		if pr.Contains(pn) {
			out = append(out, pn)
		}
	}
	if missing := len(all) - len(out); missing > 0 {
		slog.Warn("neighbor targets missing from patent store", "missing", missing)
	}
	return out, nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Evaluate a query and print the matching publication numbers",
		ArgsUsage: "QUERY",
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			q := strings.Join(c.Args().Slice(), " ")
			if q == "" {
				return fmt.Errorf("missing query")
			}
			return withSearcher(a, func(s *searcher.Searcher) error {
				r, err := s.Search(q)
				if err != nil {
					return err
				}
				for _, pn := range r.IDs {
					fmt.Fprintln(c.App.Writer, pn)
				}
				return nil
			})
		},
	}
}

func checkQueriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-queries",
		Usage: "Replay recorded queries and report recall against their recorded results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cases", Usage: "Directory of *.json query cases", Required: true},
		},
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			cases, err := dataset.ReadQueryCases(c.String("cases"))
			if err != nil {
				return err
			}
			return withSearcher(a, func(s *searcher.Searcher) error {
				results := make([]searcher.CaseResult, 0, len(cases))
				for _, qc := range cases {
					if err := c.Context.Err(); err != nil {
						return err
					}
					res := s.Check(qc.Name, qc.Query, qc.Results)
					if res.Err != nil {
						slog.Warn("query failed", "case", res.Name, "query", res.Query, "error", res.Err)
					} else if res.Recall() < 100 {
						slog.Info("query missed results",
							"case", res.Name, "matched", res.Matched, "expected", res.Expected)
					}
					results = append(results, res)
				}
				sum := searcher.Summarize(results)
				slog.Info("query check complete",
					"cases", sum.Cases,
					"failed", sum.Failed,
					"mean_recall", fmt.Sprintf("%.2f%%", sum.MeanRecall),
					"median_recall", fmt.Sprintf("%.2f%%", sum.MedianRecall),
					"mean_time", sum.MeanTime,
					"median_time", sum.MedianTime,
					"total_time", sum.Total)
				return nil
			})
		},
	}
}

// withSearcher opens the configured index for one evaluator session.
func withSearcher(a *app, fn func(*searcher.Searcher) error) error {
	ir, err := index.Open(a.cfg.Data.IndexDir)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer ir.Close()
	si, err := ir.NewSearchIndex()
	if err != nil {
		return fmt.Errorf("opening index session: %w", err)
	}
	defer si.Close()
	return fn(searcher.New(si,
		searcher.WithMatchCeiling(a.cfg.Search.MatchCeiling),
		searcher.WithResultLimit(a.cfg.Search.ResultLimit),
		searcher.WithMetrics(a.metrics)))
}

func stringOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
