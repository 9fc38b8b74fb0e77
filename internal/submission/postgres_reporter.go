package submission

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/postgres"
)

const (
	createPropertiesSQL = `CREATE TABLE IF NOT EXISTS properties (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
)`
	createGeneratorsSQL = `CREATE TABLE IF NOT EXISTS generators (
    task INTEGER NOT NULL,
    generator TEXT NOT NULL,
    score DOUBLE PRECISION,
    seconds DOUBLE PRECISION,
    PRIMARY KEY (task, generator)
)`
	createTasksSQL = `CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY,
    generator TEXT,
    score DOUBLE PRECISION,
    seconds DOUBLE PRECISION
)`

	insertPropertySQL  = `INSERT INTO properties (key, value) VALUES ($1, $2)`
	insertGeneratorSQL = `INSERT INTO generators (task, generator) VALUES ($1, $2)`
	insertTaskSQL      = `INSERT INTO tasks (id) VALUES ($1)`
	updateGeneratorSQL = `UPDATE generators SET score = $3, seconds = $4 WHERE task = $1 AND generator = $2`
	updateTaskSQL      = `UPDATE tasks SET generator = $2, score = $3, seconds = $4 WHERE id = $1`
)

// PostgresReporter writes progress to the properties, generators and tasks
// tables, one row per task and per (task, generator), for dashboards.
type PostgresReporter struct {
	client *postgres.Client
	reset  bool
}

// NewPostgresReporter uses client. When reset is set, Init creates the
// tables if needed and truncates them.
func NewPostgresReporter(client *postgres.Client, reset bool) *PostgresReporter {
	return &PostgresReporter{client: client, reset: reset}
}

func (r *PostgresReporter) Init(ctx context.Context, workers, taskCount int, generators []string) error {
	if r.reset {
		err := r.client.InTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range []string{
				createPropertiesSQL,
				createGeneratorsSQL,
				createTasksSQL,
				"TRUNCATE properties",
				"TRUNCATE generators",
				"TRUNCATE tasks",
			} {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("preparing schema: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return r.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertPropertySQL, "threadCount", workers); err != nil {
			return fmt.Errorf("inserting thread count: %w", err)
		}
		insertTask, err := tx.PrepareContext(ctx, insertTaskSQL)
		if err != nil {
			return fmt.Errorf("preparing task insert: %w", err)
		}
		defer insertTask.Close()
		insertGenerator, err := tx.PrepareContext(ctx, insertGeneratorSQL)
		if err != nil {
			return fmt.Errorf("preparing generator insert: %w", err)
		}
		defer insertGenerator.Close()

		for task := 0; task < taskCount; task++ {
			if _, err := insertTask.ExecContext(ctx, task); err != nil {
				return fmt.Errorf("inserting task %d: %w", task, err)
			}
			for _, g := range generators {
				if _, err := insertGenerator.ExecContext(ctx, task, g); err != nil {
					return fmt.Errorf("inserting generator %s for task %d: %w", g, task, err)
				}
			}
		}
		return nil
	})
}

func (r *PostgresReporter) ReportGenerator(ctx context.Context, task int, generator string, score, seconds float64) error {
	if _, err := r.client.DB.ExecContext(ctx, updateGeneratorSQL, task, generator, score, seconds); err != nil {
		return fmt.Errorf("updating generator %s of task %d: %w", generator, task, err)
	}
	return nil
}

func (r *PostgresReporter) ReportTask(ctx context.Context, task int, generator string, score, seconds float64) error {
	if _, err := r.client.DB.ExecContext(ctx, updateTaskSQL, task, generator, score, seconds); err != nil {
		return fmt.Errorf("updating task %d: %w", task, err)
	}
	return nil
}

func (r *PostgresReporter) Close() error {
	return r.client.Close()
}
