package patents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
)

// DocumentSource yields patents one at a time and returns io.EOF when
// exhausted.
type DocumentSource interface {
	Next(ctx context.Context) (*Patent, error)
}

// ImportStats summarises an Import run.
type ImportStats struct {
	Written int
	Skipped int
	Elapsed time.Duration
}

// Import streams every document from source into w. Documents that fail
// validation are logged and skipped.
func Import(ctx context.Context, source DocumentSource, w *Writer, m *metrics.Metrics) (ImportStats, error) {
	log := logger.WithComponent("patent-import")
	start := time.Now()
	var stats ImportStats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		p, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("reading document %d: %w", stats.Written+stats.Skipped, err)
		}
		if err := Validate(p); err != nil {
			log.Warn("skipping invalid patent",
				"publication_number", p.PublicationNumber,
				"error", err,
			)
			stats.Skipped++
			continue
		}
		if err := w.WritePatent(*p); err != nil {
			return stats, fmt.Errorf("writing patent %s: %w", p.PublicationNumber, err)
		}
		m.IncPatentsImported()
		stats.Written++
		if stats.Written%100000 == 0 {
			log.Info("import progress", "written", stats.Written, "elapsed", time.Since(start))
		}
	}

	stats.Elapsed = time.Since(start)
	log.Info("import complete",
		"written", stats.Written,
		"skipped", stats.Skipped,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}
