// Package redis implements the store.KV medium on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/kanjidrill/internal/store"
)

// Config holds the connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// KV stores each value under its key as a Redis string.
type KV struct {
	rdb    goredis.UniversalClient
	logger *slog.Logger
}

var _ store.KV = (*KV)(nil)

// Open connects to Redis and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*KV, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", mapError(err))
	}

	return New(rdb, logger), nil
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient, logger *slog.Logger) *KV {
	if rdb == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KV{rdb: rdb, logger: logger.With(slog.String("component", "redis"))}
}

// Get implements store.KV.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := k.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, mapError(err)
	}
	return value, nil
}

// Set implements store.KV.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	return mapError(k.rdb.Set(ctx, key, value, 0).Err())
}

// SetMany implements store.KV with a MULTI/EXEC transaction.
func (k *KV) SetMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := k.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, key, value, 0)
		}
		return nil
	})
	if err != nil {
		k.logger.Warn("redis transaction failed",
			slog.Int("keys", len(entries)),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrTransactionFailed, mapError(err))
	}
	return nil
}

// Delete implements store.KV.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return mapError(k.rdb.Del(ctx, keys...).Err())
}

// Ping implements store.KV.
func (k *KV) Ping(ctx context.Context) error {
	return mapError(k.rdb.Ping(ctx).Err())
}

// Close implements store.KV.
func (k *KV) Close() error {
	return k.rdb.Close()
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.Nil):
		return store.ErrKeyNotFound
	default:
		return fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
}
