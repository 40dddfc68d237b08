package middleware

import (
	"net/http"
	"slices"
)

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Content-Type, X-Request-ID"
	corsMaxAge  = "86400"
)

// CORS allows browser clients from the listed origins, "*" matching any.
// Preflight requests from allowed origins are answered with 204. With no
// origins configured the middleware does nothing.
func CORS(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(origins) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !(slices.Contains(origins, "*") || slices.Contains(origins, origin)) {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
