// Package middleware provides the HTTP middleware shared by the search
// server: request ids, Prometheus metrics, timeouts, rate limiting and CORS.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates one, echoes it in
// the response and stores it in the request context for logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = newRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func GetRequestID(ctx context.Context) string {
	return logger.RequestID(ctx)
}

func newRequestID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Chain applies middlewares so that the first one listed is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
