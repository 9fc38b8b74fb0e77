// Package health runs readiness probes against the external sinks a
// synthesis run depends on (Postgres, Kafka, Redis) and serves the
// aggregate over HTTP next to the metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// ComponentHealth is the outcome of a single probe.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

// Report aggregates every probe. Status is down if any component is down.
type Report struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  string            `json:"timestamp"`
}

// Checker holds named probes. Probes may be registered after the server
// starts, as sinks are opened.
type Checker struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

func NewChecker() *Checker {
	return &Checker{probes: make(map[string]Probe)}
}

func (c *Checker) Register(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = p
}

// Run executes all probes concurrently. Components are sorted by name.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make([]ComponentHealth, 0, len(probes)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, p := range probes {
		name, p := name, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := p(ctx)
			comp := ComponentHealth{
				Name:    name,
				Status:  StatusUp,
				Latency: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				comp.Status = StatusDown
				comp.Message = err.Error()
			}
			mu.Lock()
			report.Components = append(report.Components, comp)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(report.Components, func(i, j int) bool {
		return report.Components[i].Name < report.Components[j].Name
	})
	for _, comp := range report.Components {
		if comp.Status == StatusDown {
			report.Status = StatusDown
			break
		}
	}
	return report
}

// LiveHandler always answers 200 while the process is serving.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 503 when any registered probe fails.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusUp {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
