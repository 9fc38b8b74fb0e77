// Package resilience keeps a flaky progress sink from stalling a synthesis
// run. A Breaker stops calling a sink that keeps failing, and Backoff
// retries a single call a bounded number of times.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
)

// ErrCircuitOpen is wrapped by every call the Breaker refuses.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig sets when the breaker trips and how it recovers. Zero
// values take the defaults: 5 failures, 30s cooldown, 1 probe.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
	Probes           int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.Probes <= 0 {
		c.Probes = 1
	}
	return c
}

// BreakerStats is a point-in-time view of a Breaker.
type BreakerStats struct {
	State    State
	Failures int
	Rejected int
}

// Breaker opens after FailureThreshold consecutive failures. Once Cooldown
// has passed it lets up to Probes calls through; one success closes it and
// any failure opens it again.
type Breaker struct {
	name     string
	cfg      BreakerConfig
	now      func() time.Time
	onChange func(name string, s State)
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	rejected int
	openedAt time.Time
	inFlight int
}

type BreakerOption func(*Breaker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers fn, called under the breaker's lock on every
// transition.
func OnStateChange(fn func(name string, s State)) BreakerOption {
	return func(b *Breaker) { b.onChange = fn }
}

func NewBreaker(name string, cfg BreakerConfig, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:   name,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		logger: logger.WithComponent("circuit-breaker").With("name", name),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Do runs fn unless the breaker refuses, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{State: b.state, Failures: b.failures, Rejected: b.rejected}
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			b.rejected++
			return fmt.Errorf("%w: %s for another %v", ErrCircuitOpen, b.name, wait.Round(time.Millisecond))
		}
		b.transition(StateHalfOpen)
	}
	if b.state == StateHalfOpen {
		if b.inFlight >= b.cfg.Probes {
			b.rejected++
			return fmt.Errorf("%w: %s is probing", ErrCircuitOpen, b.name)
		}
		b.inFlight++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		if b.state != StateOpen {
			b.transition(StateOpen)
		}
	}
}

// transition resets the probe count on every state change.
func (b *Breaker) transition(s State) {
	b.logger.Info("circuit state changed", "from", b.state, "to", s, "failures", b.failures)
	b.state = s
	b.inFlight = 0
	if b.onChange != nil {
		b.onChange(b.name, s)
	}
}
