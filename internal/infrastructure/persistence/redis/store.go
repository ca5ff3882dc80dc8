// Package redis provides a Redis-backed PersistedStore so a session can be
// shared between devices that point at the same server
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/ports/outbound"
	"go.uber.org/zap"
)

// Store implements outbound.PersistedStore on top of plain string keys
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

var _ outbound.PersistedStore = (*Store)(nil)

// NewClient creates a Redis client from configuration and checks the
// connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewStore creates a store that namespaces every key with prefix
func NewStore(client redis.UniversalClient, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.Named("redis-store"),
	}
}

// Save stores value under key without expiry
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.Error("Redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Debug("Redis get failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

// Clear removes keys
func (s *Store) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		s.logger.Error("Redis del failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	return nil
}
