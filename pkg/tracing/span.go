// Package tracing times the phases of a workflow run. Spans nest through
// the context and the finished tree is logged via slog.
package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed phase.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    []slog.Attr
	ended    bool
}

// Start opens a span under the span already in ctx, or a new trace when
// there is none.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	} else {
		span.TraceID = newTraceID()
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// End fixes the duration. Later calls are ignored.
func (s *Span) End() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.Duration = time.Since(s.Start)
		s.ended = true
	}
	return s.Duration
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// Log writes the span and its descendants, depth first.
func (s *Span) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	args := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	}
	for _, a := range s.attrs {
		args = append(args, a)
	}
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	logger.Info("phase", args...)
	for _, c := range children {
		c.log(logger, depth+1)
	}
}

func newTraceID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
