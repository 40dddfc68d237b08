// Package handler exposes the searcher over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/logger"
)

type Searcher interface {
	Search(ctx context.Context, indexName, raw string) (*search.Result, error)
	Indexes() []string
}

type Handler struct {
	searcher     Searcher
	cache        *cache.QueryCache
	defaultIndex string
	logger       *slog.Logger
}

// New builds a handler. queryCache may be nil.
func New(s Searcher, queryCache *cache.QueryCache, defaultIndex string) *Handler {
	return &Handler{
		searcher:     s,
		cache:        queryCache,
		defaultIndex: defaultIndex,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/indexes", h.Indexes)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type errorResponse struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Found    string   `json:"found,omitempty"`
	Near     []string `json:"near,omitempty"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	// A missing or blank q is rejected by the parser as EmptyQuery.
	q := r.URL.Query().Get("q")
	indexName := r.URL.Query().Get("index")
	if indexName == "" {
		indexName = h.defaultIndex
	}

	res, err := h.searcher.Search(ctx, indexName, q)
	if err != nil {
		if search.IsClientError(err) {
			log.Debug("rejected query", "query", q, "index", indexName, "error", err)
		} else {
			log.Error("search failed", "query", q, "index", indexName, "error", err)
		}
		h.writeError(w, err)
		return
	}

	log.Info("search completed",
		"query", q,
		"index", res.Index,
		"total", res.Total,
		"returned", len(res.Documents),
		"cached", res.Cached,
		"latency_ms", res.Latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Indexes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"indexes": h.searcher.Indexes(),
		"default": h.defaultIndex,
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "cache invalidation failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	resp := errorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Error = "search failed"
	}
	var pe *query.ParseError
	if errors.As(err, &pe) {
		resp.Kind = pe.Kind.String()
		if pe.Kind == query.SyntaxError {
			resp.Expected = pe.Expected.String()
			resp.Found = pe.Found.String()
			for _, t := range pe.Near {
				resp.Near = append(resp.Near, t.String())
			}
		}
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
