// Package submission runs every query generator against every task,
// keeps the best-scoring query per task and reports progress to external
// sinks without letting their failures affect the run.
package submission

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/generator"
)

const (
	// DefaultQuery is the answer for a task no generator improves on.
	DefaultQuery = "ti:device"
	// NoGenerator names the winner of a task no generator improved on.
	NoGenerator = "null"
)

// Task is one source patent and the ordered targets its query should
// recall. BestScore only ever increases.
type Task struct {
	ID                int
	PublicationNumber string
	Targets           []string

	BestQuery     string
	BestScore     float64
	BestGenerator string
}

// NewTask returns a task whose best query is fallback, or DefaultQuery
// when fallback is empty.
func NewTask(id int, publicationNumber string, targets []string, fallback string) *Task {
	if fallback == "" {
		fallback = DefaultQuery
	}
	return &Task{
		ID:                id,
		PublicationNumber: publicationNumber,
		Targets:           targets,
		BestQuery:         fallback,
		BestGenerator:     NoGenerator,
	}
}

// Consider records query as the best answer if it is non-empty and scores
// strictly higher than the current best.
func (t *Task) Consider(generatorName, query string, score float64) bool {
	if query == "" || score <= t.BestScore {
		return false
	}
	t.BestQuery = query
	t.BestScore = score
	t.BestGenerator = generatorName
	return true
}

// Attempt is the outcome of trying one generator on a task.
type Attempt struct {
	Generator string
	Query     string
	Score     float64
	Elapsed   time.Duration
	Improved  bool
}

// TryGenerator runs g with the task's targets, scores the query it
// proposes and keeps it if it is strictly better.
func (t *Task) TryGenerator(ctx context.Context, g generator.Generator, in generator.Input) (Attempt, error) {
	start := time.Now()
	in.Targets = t.Targets
	a := Attempt{Generator: g.Name()}

	q, err := g.Generate(ctx, in)
	if err != nil {
		a.Elapsed = time.Since(start)
		return a, err
	}
	a.Query = q
	if q != "" {
		if a.Score, err = generator.Score(in.Searcher, q, t.Targets); err != nil {
			a.Elapsed = time.Since(start)
			return a, err
		}
	}
	a.Elapsed = time.Since(start)
	a.Improved = t.Consider(a.Generator, q, a.Score)
	return a, nil
}
