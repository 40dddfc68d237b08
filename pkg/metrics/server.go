package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartServer serves h on /metrics in the background. Used by cmd/indexer,
// which has no HTTP server of its own.
func StartServer(port int, h http.Handler) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>Boolean Search Engine Metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
