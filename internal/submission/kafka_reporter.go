package submission

import (
	"context"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/kafka"
)

// GeneratorScoreEvent is published after each generator attempt.
type GeneratorScoreEvent struct {
	RunID     string    `json:"run_id"`
	Task      int       `json:"task"`
	Generator string    `json:"generator"`
	Score     float64   `json:"score"`
	Seconds   float64   `json:"seconds"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskResultEvent is published once a task is finished.
type TaskResultEvent struct {
	RunID     string    `json:"run_id"`
	Task      int       `json:"task"`
	Generator string    `json:"generator"`
	Score     float64   `json:"score"`
	Seconds   float64   `json:"seconds"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the subset of *kafka.Producer the reporter needs.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Close() error
}

// KafkaReporter streams progress as JSON events keyed by task id.
type KafkaReporter struct {
	runID  string
	scores Publisher
	tasks  Publisher
}

func NewKafkaReporter(runID string, scores, tasks Publisher) *KafkaReporter {
	return &KafkaReporter{runID: runID, scores: scores, tasks: tasks}
}

// Init publishes nothing; consumers learn the roster from the events.
func (r *KafkaReporter) Init(context.Context, int, int, []string) error {
	return nil
}

func (r *KafkaReporter) ReportGenerator(ctx context.Context, task int, generator string, score, seconds float64) error {
	return r.scores.Publish(ctx, kafka.Event{
		Key: strconv.Itoa(task),
		Value: GeneratorScoreEvent{
			RunID:     r.runID,
			Task:      task,
			Generator: generator,
			Score:     score,
			Seconds:   seconds,
			Timestamp: time.Now().UTC(),
		},
	})
}

func (r *KafkaReporter) ReportTask(ctx context.Context, task int, generator string, score, seconds float64) error {
	return r.tasks.Publish(ctx, kafka.Event{
		Key: strconv.Itoa(task),
		Value: TaskResultEvent{
			RunID:     r.runID,
			Task:      task,
			Generator: generator,
			Score:     score,
			Seconds:   seconds,
			Timestamp: time.Now().UTC(),
		},
	})
}

func (r *KafkaReporter) Close() error {
	err := r.scores.Close()
	if terr := r.tasks.Close(); err == nil {
		err = terr
	}
	return err
}
