// Package logger configures the process-wide slog logger and hands out
// component-scoped loggers.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey struct{}

// Setup installs a slog handler writing to stdout as the default logger.
func Setup(level string, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level string, format string) {
	slog.SetDefault(slog.New(newHandler(w, level, format)))
}

func newHandler(w io.Writer, level string, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if requestID := RequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// Discard returns a logger that drops every record. Tests use it to keep
// output quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
