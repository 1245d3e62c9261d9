// Package cache memoises search results. Lookups go through an in-process
// LRU first and an optional remote tier (Redis) second; concurrent misses
// for the same key are collapsed into one computation.
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

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/querygrammar"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/resilience"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/redis"
)

const keyPrefix = "search:"

// Remote is the shared cache tier.
type Remote interface {
	// Get reports ok=false with a nil error on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache caches search results by query and limit. Cached results are
// shared and must not be modified.
type QueryCache struct {
	local   *lru.Cache[string, *executor.SearchResult]
	remote  Remote
	breaker *resilience.Breaker
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithRemote adds a remote tier whose entries expire after ttl. After five
// consecutive remote failures the tier is skipped for thirty seconds.
func WithRemote(remote Remote, ttl time.Duration) Option {
	return func(c *QueryCache) {
		c.remote = remote
		c.ttl = ttl
		if c.breaker == nil {
			c.breaker = resilience.NewBreaker("cache-remote", 5, 30*time.Second)
		}
	}
}

// WithRemoteBreaker replaces the breaker guarding the remote tier.
func WithRemoteBreaker(b *resilience.Breaker) Option {
	return func(c *QueryCache) {
		c.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) {
		c.metrics = m
	}
}

// New returns a cache holding up to size results in process.
func New(size int, opts ...Option) (*QueryCache, error) {
	local, err := lru.New[string, *executor.SearchResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache of size %d: %w", size, err)
	}
	c := &QueryCache{
		local:  local,
		logger: slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Key derives the cache key of a query within namespace. The namespace
// identifies what the query runs against (corpus, schema, rules, compiler
// settings); equal renderings share a key only within one namespace.
func Key(namespace string, ast querygrammar.UserInputAST, limit int) string {
	raw := fmt.Sprintf("%s|%s|limit=%d", namespace, ast.String(), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func (c *QueryCache) Get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	if result, ok := c.local.Get(key); ok {
		c.hit("local")
		return result, true
	}
	if c.remote != nil {
		if result, ok := c.getRemote(ctx, key); ok {
			c.local.Add(key, result)
			c.hit("remote")
			return result, true
		}
	}
	c.misses.Add(1)
	c.metrics.CacheMiss()
	return nil, false
}

func (c *QueryCache) getRemote(ctx context.Context, key string) (*executor.SearchResult, bool) {
	var (
		data []byte
		ok   bool
	)
	err := c.breaker.Do(func() error {
		var err error
		data, ok, err = c.remote.Get(ctx, key)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, false
	}
	if err != nil {
		c.logger.Error("remote cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("remote cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

func (c *QueryCache) hit(tier string) {
	c.hits.Add(1)
	c.metrics.CacheHit(tier)
}

// Set stores result in every tier. Remote failures are logged, not returned.
func (c *QueryCache) Set(ctx context.Context, key string, result *executor.SearchResult) {
	c.local.Add(key, result)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		return c.remote.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("remote cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for key, or runs compute once for
// all concurrent callers and caches its result. Errors are not cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	compute func(context.Context) (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, key); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.local.Get(key); ok {
			return result, nil
		}
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result from both tiers.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.local.Purge()
	if c.remote == nil {
		c.logger.Info("cache invalidated")
		return nil
	}
	deleted, err := c.remote.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating remote cache: %w", err)
	}
	c.logger.Info("cache invalidated", "remote_keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// RemoteState reports the breaker state of the remote tier, and false when
// there is no remote tier.
func (c *QueryCache) RemoteState() (resilience.State, bool) {
	if c.remote == nil || c.breaker == nil {
		return resilience.StateClosed, false
	}
	return c.breaker.State(), true
}

func (c *QueryCache) Len() int {
	return c.local.Len()
}

type redisRemote struct {
	client *pkgredis.Client
}

// RedisRemote adapts a Redis client to the remote tier.
func RedisRemote(client *pkgredis.Client) Remote {
	return redisRemote{client: client}
}

func (r redisRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r redisRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl)
}

func (r redisRemote) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	return r.client.FlushByPattern(ctx, pattern)
}
