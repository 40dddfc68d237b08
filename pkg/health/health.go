// Package health runs registered dependency checks and serves liveness and
// readiness endpoints.
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
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes one dependency.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report aggregates every check. Status is the worst component status;
// degraded components do not make the service unready.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names lists the registered checks in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes all checks concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Go(func() {
			start := time.Now()
			result := check(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	for _, comp := range report.Components {
		switch comp.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 503 only when a component is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
