package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/config"
	"github.com/go-redis/redis/v8"
)

// Custom error types
var (
	ErrCacheNotFound   = errors.New("cache: key not found")
	ErrCacheConnection = errors.New("cache: connection error")
	ErrInvalidConfig   = errors.New("cache: invalid configuration")
)

// Config holds the configuration for Redis client
type Config struct {
	Addr             string
	Password         string
	DB               int
	PoolSize         int
	MinIdleConns     int
	MaxRetries       int
	ConnTimeout      time.Duration
	OperationTimeout time.Duration
	DefaultTTL       time.Duration
	KeyPrefix        string
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		PoolSize:         100,
		MinIdleConns:     10,
		MaxRetries:       3,
		ConnTimeout:      5 * time.Second,
		OperationTimeout: 2 * time.Second,
		DefaultTTL:       30 * time.Minute,
		KeyPrefix:        "vibebuff:",
	}
}

// NewConfigFromEnv creates a Redis config from project configuration
func NewConfigFromEnv(cfg *config.Config) *Config {
	c := DefaultConfig()
	c.Addr = fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	c.Password = cfg.Redis.Password
	c.DB = cfg.Redis.DB
	if cfg.Server.Timeout > 0 {
		c.OperationTimeout = cfg.Server.Timeout
	}
	return c
}

// CacheMetrics tracks cache hit/miss statistics with atomic operations
type CacheMetrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// RedisClient wraps the Redis client with additional functionality
type RedisClient struct {
	client    *redis.Client
	metrics   *CacheMetrics
	config    *Config
	closeOnce sync.Once
}

// NewRedisClient creates a new Redis client with the provided configuration
func NewRedisClient(cfg *Config) (*RedisClient, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, ErrInvalidConfig
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.ConnTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &RedisClient{
		client:  client,
		metrics: &CacheMetrics{},
		config:  cfg,
	}, nil
}

func (r *RedisClient) key(key string) string {
	return r.config.KeyPrefix + key
}

// GetJSON fetches a key and unmarshals its JSON value into dest
func (r *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.OperationTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.metrics.misses.Add(1)
			return ErrCacheNotFound
		}
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache: failed to unmarshal value: %w", err)
	}

	r.metrics.hits.Add(1)
	return nil
}

// SetJSON marshals a value to JSON and stores it with a TTL
func (r *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.OperationTimeout)
	defer cancel()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal value: %w", err)
	}

	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}

	if err := r.client.Set(ctx, r.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// Delete removes a key from the cache
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.OperationTimeout)
	defer cancel()
	return r.client.Del(ctx, r.key(key)).Err()
}

// HealthCheck verifies connectivity to Redis
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.ConnTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// GetMetrics returns a snapshot of cache hit/miss counters
func (r *RedisClient) GetMetrics() map[string]int64 {
	return map[string]int64{
		"hits":   r.metrics.hits.Load(),
		"misses": r.metrics.misses.Load(),
	}
}

// GetClient exposes the underlying Redis client
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// Close shuts down the Redis connection pool
func (r *RedisClient) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.client.Close()
	})
	return err
}
