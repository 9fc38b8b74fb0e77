package submission

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/redis"
)

// ResultWriter receives each finished task.
type ResultWriter interface {
	WriteResult(ctx context.Context, t *Task) error
}

// CSVWriter writes "publication_number,query" rows.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter writes the header to w immediately.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write([]string{"publication_number", "query"}); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return cw, nil
}

// CreateCSVFile creates path, and its directory, for a CSVWriter.
func CreateCSVFile(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	cw, err := NewCSVWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.closer = f
	return cw, nil
}

func (c *CSVWriter) WriteResult(_ context.Context, t *Task) error {
	return c.w.Write([]string{t.PublicationNumber, t.BestQuery})
}

// Close flushes buffered rows and closes the file, if any.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RedisResults stores each task's best query in a hash keyed by
// publication number so a run can be watched while it progresses.
type RedisResults struct {
	client *redis.Client
	key    string
}

func NewRedisResults(client *redis.Client, key string) *RedisResults {
	return &RedisResults{client: client, key: key}
}

func (r *RedisResults) WriteResult(ctx context.Context, t *Task) error {
	if err := r.client.HSet(ctx, r.key, t.PublicationNumber, t.BestQuery); err != nil {
		return fmt.Errorf("storing result of %s: %w", t.PublicationNumber, err)
	}
	return nil
}

// Reset removes the results of a previous run.
func (r *RedisResults) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key)
}
