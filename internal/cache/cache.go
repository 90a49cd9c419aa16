// Package cache memoizes search responses in Redis. Identical queries
// within the TTL are answered without touching the engine, and concurrent
// misses for the same key collapse into one computation via singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/searchlab/postsearch/internal/engine"
	"github.com/searchlab/postsearch/internal/tokenizer"
	"github.com/searchlab/postsearch/pkg/config"
	pkgredis "github.com/searchlab/postsearch/pkg/redis"
)

const keyPrefix = "postsearch:"

type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string, k int) (*engine.Response, bool) {
	key := c.buildKey(query, k)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var resp engine.Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &resp, true
}

func (c *QueryCache) Set(ctx context.Context, query string, k int, resp *engine.Response) {
	key := c.buildKey(query, k)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response for (query, k) or runs computeFn
// once for all concurrent callers and caches the result. The second return
// reports whether the answer came from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	k int,
	computeFn func() (*engine.Response, error),
) (*engine.Response, bool, error) {
	if resp, ok := c.Get(ctx, query, k); ok {
		return resp, true, nil
	}
	key := c.buildKey(query, k)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, query, k); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, k, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*engine.Response), false, nil
}

// Invalidate drops every cached response. Called after an index swap, since
// all scores may have changed.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the normalized term multiset so that queries differing
// only in word order or stop-words share a cache entry.
func (c *QueryCache) buildKey(query string, k int) string {
	terms := tokenizer.Normalize(query)
	sort.Strings(terms)
	raw := fmt.Sprintf("%s:k=%d", strings.Join(terms, ","), k)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
