package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig controls exponential backoff. Zero fields take defaults.
// Retryable, when set, stops the loop early for errors it rejects.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
	Retryable      func(error) bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFraction <= 0 {
		c.JitterFraction = 0.1
	}
	return c
}

// Retry calls fn until it succeeds, the attempts run out, ctx ends or
// cfg.Retryable rejects the error. Context errors are never retried.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		delay := backoff(attempt, cfg)
		logger.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", lastErr,
			"next_delay", delay,
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: retry aborted during backoff: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("all %d attempts failed for %s: %w", cfg.MaxAttempts, name, lastErr)
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	d += d * cfg.JitterFraction * (2*rand.Float64() - 1)
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if d < 0 {
		d = float64(cfg.InitialDelay)
	}
	return time.Duration(d)
}
