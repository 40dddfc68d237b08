package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Timeout cancels the request context after d and answers 504 if the
// handler has not started writing by then. Writes after the deadline are
// dropped.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.flush()
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				slog.Warn("request timed out", "method", r.Method, "path", r.URL.Path, "timeout", d)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				w.Write([]byte(`{"error":"request timeout"}` + "\n"))
			}
		})
	}
}

// timeoutWriter buffers the handler's response so that exactly one of the
// handler and the timeout path writes to the client.
type timeoutWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu       sync.Mutex
	buf      []byte
	status   int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.status != 0 {
		return
	}
	tw.status = code
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	tw.buf = append(tw.buf, b...)
	return len(b), nil
}

// flush must be called with mu held.
func (tw *timeoutWriter) flush() {
	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	tw.w.WriteHeader(tw.status)
	tw.w.Write(tw.buf)
}
