package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/metrics"
)

// Result is one answered query. Documents is sorted and holds at most the
// searcher's result limit; Total is the full match count.
type Result struct {
	Query     string        `json:"query"`
	Index     string        `json:"index"`
	Parsed    string        `json:"parsed"`
	Total     int           `json:"total"`
	Documents []string      `json:"documents"`
	Truncated bool          `json:"truncated"`
	Cached    bool          `json:"cached"`
	Latency   time.Duration `json:"-"`
}

// Searcher parses raw query strings and runs them against named indexes,
// recording metrics and consulting the result cache when one is set.
type Searcher struct {
	parser     *query.Parser
	service    *Service
	current    atomic.Pointer[snapshot]
	cache      *cache.QueryCache
	metrics    *metrics.Metrics
	maxResults int
	logger     *slog.Logger
}

// snapshot is one generation of served indexes. Cache entries are scoped to
// the generation they were computed against.
type snapshot struct {
	gen     uint64
	indexes map[string]index.Accessor
}

type Option func(*Searcher)

func WithCache(c *cache.QueryCache) Option {
	return func(s *Searcher) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Searcher) { s.metrics = m }
}

// WithMaxResults caps Result.Documents. 0 means no cap.
func WithMaxResults(n int) Option {
	return func(s *Searcher) { s.maxResults = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) { s.logger = l }
}

func NewSearcher(parser *query.Parser, indexes map[string]index.Accessor, opts ...Option) *Searcher {
	s := &Searcher{
		parser:  parser,
		service: NewService(),
		logger:  slog.Default().With("component", "searcher"),
	}
	s.Swap(indexes)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Swap replaces the served indexes. Queries already running finish against
// the indexes they started with, and their results are never served for the
// new generation. The result cache, if any, is invalidated.
func (s *Searcher) Swap(indexes map[string]index.Accessor) {
	next := &snapshot{indexes: make(map[string]index.Accessor, len(indexes))}
	for name, acc := range indexes {
		next.indexes[strings.ToLower(name)] = acc
	}
	for {
		prev := s.current.Load()
		if prev != nil {
			next.gen = prev.gen + 1
		}
		if s.current.CompareAndSwap(prev, next) {
			break
		}
	}
	if next.gen > 0 && s.cache != nil {
		if err := s.cache.Invalidate(context.Background()); err != nil {
			s.logger.Warn("cache invalidation after swap failed", "error", err)
		}
	}
}

// Indexes lists the index names in sorted order.
func (s *Searcher) Indexes() []string {
	current := s.current.Load().indexes
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search runs raw against the index called indexName. Parse failures come
// back as *query.ParseError; an unknown index is an invalid argument.
func (s *Searcher) Search(ctx context.Context, indexName, raw string) (*Result, error) {
	start := time.Now()
	indexName = strings.ToLower(indexName)
	snap := s.current.Load()
	acc, ok := snap.indexes[indexName]
	if !ok {
		return nil, apperrors.InvalidArgument("unknown index %q", indexName)
	}

	node, err := s.parser.Parse(raw)
	if err != nil {
		s.metrics.SearchObserved(indexName, "parse_error", time.Since(start).Seconds(), 0)
		return nil, err
	}

	compute := func() ([]string, error) {
		set, err := s.service.ExecuteQuery(node, acc)
		if err != nil {
			return nil, err
		}
		return set.Sorted(), nil
	}

	var docs []string
	cached := false
	if s.cache != nil {
		scope := fmt.Sprintf("%s@%d", indexName, snap.gen)
		docs, cached, err = s.cache.GetOrCompute(ctx, scope, node, compute)
	} else {
		docs, err = compute()
	}
	if err != nil {
		s.metrics.SearchObserved(indexName, "error", time.Since(start).Seconds(), 0)
		return nil, err
	}

	res := &Result{
		Query:     raw,
		Index:     indexName,
		Parsed:    node.String(),
		Total:     len(docs),
		Documents: docs,
		Cached:    cached,
	}
	if s.maxResults > 0 && len(docs) > s.maxResults {
		res.Documents = docs[:s.maxResults]
		res.Truncated = true
	}
	res.Latency = time.Since(start)

	outcome := "hit"
	if res.Total == 0 {
		outcome = "empty"
	}
	s.metrics.SearchObserved(indexName, outcome, res.Latency.Seconds(), res.Total)
	s.logger.Debug("query answered",
		"index", indexName,
		"query", res.Parsed,
		"total", res.Total,
		"cached", cached,
		"latency", res.Latency,
	)
	return res, nil
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return apperrors.IsQueryError(err) || errors.Is(err, apperrors.ErrInvalidArgument)
}
