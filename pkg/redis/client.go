// Package redis wraps go-redis/v9 for the search result cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/resilience"
)

// ErrNil is returned by Get for a missing key.
var ErrNil = redis.Nil

type Client struct {
	rdb redis.UniversalClient
}

// NewClient connects and verifies the connection with PING, retrying with
// backoff until ctx ends.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	err := resilience.Retry(ctx, "redis-connect", resilience.RetryConfig{MaxAttempts: 3}, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Wrap uses an existing go-redis client.
func Wrap(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, key).Bytes()
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// FlushByPattern deletes every key matching the glob pattern and returns how
// many were removed.
func (c *Client) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.rdb.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("deleting keys: %w", err)
		}
		deleted += n
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	return deleted, flush()
}

func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
