package styles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deltakaart/atlas/internal/observability"
)

const keyPrefix = "layer-style:"

type RedisOption func(*redis.Options)

func WithPoolSize(n int) RedisOption {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.DialTimeout = d }
}

// RedisStore persists style configuration in Redis so it survives
// process restarts.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, addr string, opts ...RedisOption) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("styles: redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     16,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, f := range opts {
		f(ro)
	}
	rdb := redis.NewClient(ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveStorageOp("redis", "ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("styles: redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, layerID string) (Config, error) {
	start := time.Now()
	raw, err := s.rdb.Get(ctx, keyPrefix+layerID).Bytes()
	observability.ObserveStorageOp("redis", "get", err, time.Since(start).Seconds())
	if errors.Is(err, redis.Nil) {
		return Config{}, ErrNotFound
	}
	if err != nil {
		return Config{}, fmt.Errorf("styles: redis get %q: %w", layerID, err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("styles: decode config for %q: %w", layerID, err)
	}
	return cfg, nil
}

func (s *RedisStore) Set(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("styles: encode config for %q: %w", cfg.LayerID, err)
	}
	start := time.Now()
	err = s.rdb.Set(ctx, keyPrefix+cfg.LayerID, raw, 0).Err()
	observability.ObserveStorageOp("redis", "set", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("styles: redis set %q: %w", cfg.LayerID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, layerID string) error {
	start := time.Now()
	n, err := s.rdb.Del(ctx, keyPrefix+layerID).Result()
	observability.ObserveStorageOp("redis", "del", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("styles: redis del %q: %w", layerID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies the connection, for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
