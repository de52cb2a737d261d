package classify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores predictions by key. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (Prediction, bool, error)
	Set(ctx context.Context, key string, p Prediction) error
}

// CacheKey derives the cache key for a chunk.
func CacheKey(chunk string) string {
	sum := sha256.Sum256([]byte(chunk))
	return "bulletinlens:sentiment:" + hex.EncodeToString(sum[:])
}

// CachedClassifier answers repeated chunks from a cache. Cache failures are
// logged and fall through to the wrapped classifier.
type CachedClassifier struct {
	next  Classifier
	cache Cache
	log   *slog.Logger
}

func NewCachedClassifier(next Classifier, cache Cache, log *slog.Logger) *CachedClassifier {
	return &CachedClassifier{next: next, cache: cache, log: log}
}

func (c *CachedClassifier) Classify(ctx context.Context, chunk string) (Prediction, error) {
	key := CacheKey(chunk)
	p, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("prediction cache read failed", "error", err)
	} else if ok {
		return p, nil
	}

	p, err = c.next.Classify(ctx, chunk)
	if err != nil {
		return Prediction{}, err
	}
	if err := c.cache.Set(ctx, key, p); err != nil {
		c.log.Warn("prediction cache write failed", "error", err)
	}
	return p, nil
}

// MemoryCache is a bounded in-process cache. When full, an arbitrary entry
// is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]Prediction
	limit   int
}

func NewMemoryCache(limit int) *MemoryCache {
	if limit <= 0 {
		limit = 10000
	}
	return &MemoryCache{entries: make(map[string]Prediction), limit: limit}
}

func (m *MemoryCache) Get(_ context.Context, key string) (Prediction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[key]
	return p, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, p Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.limit {
		for k := range m.entries {
			delete(m.entries, k)
			break
		}
	}
	m.entries[key] = p
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisCache keeps predictions in Redis as JSON with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (Prediction, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return Prediction{}, false, nil
	}
	if err != nil {
		return Prediction{}, false, fmt.Errorf("redis get: %w", err)
	}
	var p Prediction
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return Prediction{}, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	return p, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, p Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
