package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "scores")

	err := p.Publish(context.Background(), Event{
		Key:   "US-123-A",
		Value: map[string]any{"score": 0.5},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "US-123-A", string(w.messages[0].Key))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, 0.5, decoded["score"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishBatchPropagatesError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "scores")

	err := p.PublishBatch(context.Background(), []Event{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublishBatchEmpty(t *testing.T) {
	w := &recordingWriter{err: errors.New("unused")}
	p := NewProducerWithWriter(w, "scores")
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
}
