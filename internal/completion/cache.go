package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/interview-prep/backend/internal/config"
)

// CachedClient memoizes completions in Redis keyed by the exact prompt.
// Cache failures are logged and bypassed; they never fail a completion.
type CachedClient struct {
	inner     Client
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration, namespace string) *CachedClient {
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

// NewRedisClient parses url (redis://...) and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// WithCache wraps client in a CachedClient when a Redis URL is configured.
// An unreachable Redis only disables caching. The returned func releases the
// connection.
func WithCache(ctx context.Context, client Client, cfg config.RedisConfig, namespace string) (Client, func()) {
	noop := func() {}
	if client == nil || cfg.URL == "" {
		return client, noop
	}

	rdb, err := NewRedisClient(ctx, cfg.URL)
	if err != nil {
		log.Printf("WARN: completion cache disabled: %v", err)
		return client, noop
	}
	log.Printf("Completion cache enabled (ttl %s)", cfg.CacheTTL())
	return NewCachedClient(client, rdb, cfg.CacheTTL(), namespace), func() { rdb.Close() }
}

func (c *CachedClient) Complete(ctx context.Context, messages []Message) (*Response, error) {
	key := CacheKey(c.namespace, messages)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Response
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return &cached, nil
		}
		log.Printf("WARN: corrupt completion cache entry %s, refreshing", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("WARN: completion cache read failed: %v", err)
	}

	resp, err := c.inner.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("WARN: completion cache write failed: %v", err)
		}
	}
	return resp, nil
}

// CacheKey derives a stable key from the namespace and the ordered messages.
func CacheKey(namespace string, messages []Message) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return "completion:" + hex.EncodeToString(h.Sum(nil))
}
