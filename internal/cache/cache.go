// Package cache provides the typed key-value store the engine keeps its
// research envelopes in. Redis backs production; an in-memory variant
// backs tests and keyless development.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Key namespaces. These are part of the observable contract: the
// universe ingestion pipeline writes universe:assets, everything else
// is written here.
func ResearchKey(symbol string) string {
	return "research:" + strings.ToUpper(symbol)
}

func BotKey(symbol, botName string) string {
	return "bot:" + strings.ToUpper(symbol) + ":" + botName
}

const (
	WatchlistKey = "priority:watchlist"
	UniverseKey  = "universe:assets"
)

// Client is the typed get/set contract the engine depends on. Values
// are JSON-marshalled; Get unmarshals into the supplied pointer.
type Client interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RedisClient is the production Client backed by Redis
type RedisClient struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedis connects a Redis-backed cache client using a redis:// URL
func NewRedis(redisURL string, log zerolog.Logger) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisClient{
		rdb: redis.NewClient(opts),
		log: log.With().Str("component", "cache").Logger(),
	}, nil
}

// NewRedisFromClient wraps an existing Redis client (used by tests)
func NewRedisFromClient(rdb *redis.Client, log zerolog.Logger) *RedisClient {
	return &RedisClient{rdb: rdb, log: log.With().Str("component", "cache").Logger()}
}

// Ping verifies connectivity at startup
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisClient) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}
	return n > 0, nil
}
