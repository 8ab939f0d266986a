// Package cache provides a Redis-backed cache for fusion results. Fusion
// is deterministic, so an identical request body within the TTL can be
// answered from the cache without re-running the pipeline. This is a
// transparent response cache, not a store of record: losing it only costs
// recomputation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned when no cached result exists for a key.
var ErrMiss = errors.New("cache miss")

// Config holds cache settings.
type Config struct {
	Addr        string
	PasswordEnv string
	DB          int
	PoolSize    int
	ResultTTL   time.Duration
}

// ResultCache caches serialized fusion results keyed by request digest.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a result cache. Returns nil when no addr is configured;
// callers treat a nil cache as disabled.
func New(cfg Config, logger *zap.Logger) *ResultCache {
	if cfg.Addr == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: os.Getenv(cfg.PasswordEnv),
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	return &ResultCache{
		client: client,
		ttl:    cfg.ResultTTL,
		logger: logger,
	}
}

// Key derives the cache key for a raw request body.
func Key(body []byte) string {
	sum := sha256.Sum256(body)
	return "fusioncore:result:" + hex.EncodeToString(sum[:16])
}

// Get returns the cached result bytes for a key, or ErrMiss.
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// Set stores result bytes under a key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity.
func (c *ResultCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
