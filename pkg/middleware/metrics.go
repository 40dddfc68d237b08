package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/metrics"
)

// Metrics records request count, latency and in-flight requests. A nil m
// returns next unchanged.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			path := routeLabel(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	return sw.ResponseWriter.Write(b)
}

// routeLabel keeps label cardinality bounded: anything outside the served
// prefixes is reported as "other".
func routeLabel(path string) string {
	for _, prefix := range []string{"/api/", "/health/", "/metrics"} {
		if strings.HasPrefix(path, prefix) {
			return path
		}
	}
	return "other"
}
