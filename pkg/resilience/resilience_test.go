package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSink = errors.New("sink down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func fail() error { return errSink }
func ok() error   { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	var transitions []State
	b := NewBreaker("sink", BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour},
		OnStateChange(func(_ string, s State) { transitions = append(transitions, s) }))

	assert.ErrorIs(t, b.Do(fail), errSink)
	assert.Equal(t, StateClosed, b.Stats().State)
	assert.ErrorIs(t, b.Do(fail), errSink)
	assert.Equal(t, StateOpen, b.Stats().State)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, []State{StateOpen}, transitions)
	assert.Equal(t, BreakerStats{State: StateOpen, Failures: 2, Rejected: 1}, b.Stats())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("sink", BreakerConfig{FailureThreshold: 2})
	require.Error(t, b.Do(fail))
	require.NoError(t, b.Do(ok))
	require.Error(t, b.Do(fail))
	assert.Equal(t, StateClosed, b.Stats().State)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []State
	b := NewBreaker("sink", BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute},
		WithClock(clock.now),
		OnStateChange(func(_ string, s State) { transitions = append(transitions, s) }))

	require.Error(t, b.Do(fail))
	clock.advance(30 * time.Second)
	assert.ErrorIs(t, b.Do(ok), ErrCircuitOpen)

	clock.advance(30 * time.Second)
	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateClosed, b.Stats().State)
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := NewBreaker("sink", BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute}, WithClock(clock.now))
	for i := 0; i < 3; i++ {
		require.Error(t, b.Do(fail))
	}
	clock.advance(time.Minute)
	assert.ErrorIs(t, b.Do(fail), errSink)
	assert.Equal(t, StateOpen, b.Stats().State)
	assert.ErrorIs(t, b.Do(ok), ErrCircuitOpen)

	clock.advance(time.Minute)
	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateClosed, b.Stats().State)
}

func TestBreakerLimitsConcurrentProbes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := NewBreaker("sink", BreakerConfig{FailureThreshold: 1, Cooldown: time.Second}, WithClock(clock.now))
	require.Error(t, b.Do(fail))
	clock.advance(time.Second)

	var inner error
	err := b.Do(func() error {
		inner = b.Do(ok)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrCircuitOpen)
	assert.Equal(t, StateClosed, b.Stats().State)
}

func TestBackoffSucceedsEventually(t *testing.T) {
	var calls int32
	err := Backoff{Attempts: 3, Initial: time.Millisecond}.Do(context.Background(), "flaky", func() error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errSink
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls)
}

func TestBackoffGivesUp(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 2, Initial: time.Millisecond}.Do(context.Background(), "down", func() error {
		calls++
		return errSink
	})
	assert.ErrorIs(t, err, errSink)
	assert.Equal(t, 2, calls)
}

func TestBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Backoff{
		Attempts:  5,
		Initial:   time.Millisecond,
		Retryable: func(err error) bool { return !errors.Is(err, ErrCircuitOpen) },
	}.Do(context.Background(), "open", func() error {
		calls++
		return ErrCircuitOpen
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}

func TestBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Backoff{Attempts: 3, Initial: time.Second}.Do(ctx, "cancelled", fail)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayDoublesUpToMax(t *testing.T) {
	b := Backoff{Initial: 10 * time.Millisecond, Max: 35 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, b.delay(1))
	assert.Equal(t, 20*time.Millisecond, b.delay(2))
	assert.Equal(t, 35*time.Millisecond, b.delay(3))
}
