package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"

	"github.com/spektr-org/salaryscope/config"
	"github.com/spektr-org/salaryscope/engine"
)

// ============================================================================
// VIEW CACHE — Redis-backed memo of computed view models
// ============================================================================
// Build is a pure function of (dataset, selection, params), so a result can
// be reused by anyone who asks the same question of the same dataset. The
// key carries the dataset fingerprint; reloading a different dataset makes
// every old entry unreachable and the TTL reclaims it.
// ============================================================================

// RedisCache stores JSON-encoded view models.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New wraps an existing client.
func New(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Open connects to the Redis server described by cfg and pings it.
func Open(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.TTL), nil
}

// Get returns the cached view model for key. A missing key is a miss, not
// an error.
func (c *RedisCache) Get(ctx context.Context, key string) (*engine.ViewModel, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var vm engine.ViewModel
	if err := json.Unmarshal(data, &vm); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &vm, true, nil
}

// Set stores vm under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, vm *engine.ViewModel) error {
	data, err := json.Marshal(vm)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *RedisCache) Close() error { return c.client.Close() }

// Key derives the cache key for one evaluation.
func Key(prefix, fingerprint string, sel engine.Selection, p engine.Params) string {
	h := xxhash.New()
	_, _ = h.WriteString(sel.Canonical())
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(p.TopN))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(p.Bins))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Quote(p.FocusRole))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(p.DistributionDimension))
	return prefix + fingerprint + ":" + strconv.FormatUint(h.Sum64(), 16)
}
