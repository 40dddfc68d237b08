package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter is an in-memory token bucket per client key. Each key holds up to
// limit tokens and refills at limit per window.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: float64(l.limit - 1), lastCheck: now}
		return l.limit > 0
	}

	rate := float64(l.limit) / l.window.Seconds()
	b.tokens += now.Sub(b.lastCheck).Seconds() * rate
	b.lastCheck = now
	if b.tokens > float64(l.limit) {
		b.tokens = float64(l.limit)
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets idle for two windows and returns how many remain.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-2 * l.window)
	for key, b := range l.buckets {
		if b.lastCheck.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
	return len(l.buckets)
}

// StartSweeper calls Sweep every interval until ctx ends.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// RateLimit rejects requests over the client's budget with 429. Clients are
// keyed by remote IP. Health and metrics endpoints are never limited. A nil
// limiter disables the middleware.
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
