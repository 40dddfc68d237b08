// Package resilience holds the fault-tolerance helpers used around the
// optional network dependencies: retry with exponential backoff for Kafka
// publishes and Redis connects, and a circuit breaker that lets the result
// cache stop talking to an unhealthy Redis.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

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
	default:
		return "unknown"
	}
}

type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// CircuitBreaker opens after FailureThreshold consecutive failures. Once
// ResetTimeout has passed it lets a single probe through; the probe's
// outcome closes or re-opens it.
type CircuitBreaker struct {
	name   string
	cfg    BreakerConfig
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.acquire(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			return fmt.Errorf("%w: %s", ErrCircuitOpen, cb.name)
		}
		cb.state = StateHalfOpen
		cb.probing = true
		cb.logger.Info("circuit half-open, probing")
	case StateHalfOpen:
		if cb.probing {
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, cb.name)
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
	if err == nil {
		if cb.state != StateClosed {
			cb.logger.Info("circuit closed")
		}
		cb.state = StateClosed
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		if cb.state != StateOpen {
			cb.logger.Warn("circuit opened", "consecutive_failures", cb.failures, "error", err)
		}
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
}
