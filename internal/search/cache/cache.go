// Package cache stores search results in Redis keyed by index name and the
// canonical form of the parsed query, so "a and b" and "A AND (b)" share an
// entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/resilience"
)

const keyPrefix = "bse:search:"

// Store is the subset of the Redis client the cache needs. A missing key is
// reported with an error matching pkgredis.ErrNil.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type entry struct {
	Docs []string `json:"docs"`
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("redis-cache", resilience.BreakerConfig{}),
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached documents for node against indexName.
func (c *QueryCache) Get(ctx context.Context, indexName string, node query.Node) ([]string, bool) {
	key := Key(indexName, node)
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil || data == nil {
		if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheHit()
	c.logger.Debug("cache hit", "index", indexName, "query", node.String())
	return e.Docs, true
}

func (c *QueryCache) Set(ctx context.Context, indexName string, node query.Node, docs []string) {
	key := Key(indexName, node)
	data, err := json.Marshal(entry{Docs: docs})
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves from the cache or runs compute once per key, even when
// many callers miss at the same time. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(ctx context.Context, indexName string, node query.Node, compute func() ([]string, error)) ([]string, bool, error) {
	if docs, ok := c.Get(ctx, indexName, node); ok {
		return docs, true, nil
	}
	val, err, _ := c.group.Do(Key(indexName, node), func() (any, error) {
		docs, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, indexName, node, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]string), false, nil
}

// Invalidate drops every cached result. Called whenever the indexes are
// rebuilt or reloaded.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	c.metrics.CacheMiss()
}

// Key is the Redis key for node evaluated against indexName.
func Key(indexName string, node query.Node) string {
	sum := sha256.Sum256([]byte(node.String()))
	return fmt.Sprintf("%s%s:%x", keyPrefix, indexName, sum[:16])
}
