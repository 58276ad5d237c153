package storage

import (
	"context"
	"fmt"

	"companion-bot/internal/config"
)

// Open creates the KV backend selected by STORAGE_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		return NewFileStore(cfg.StoragePath)
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
