package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// KV abstracts the durable key-value medium behind the conversation history.
// Implementations can be file-based, redis, a database, etc.
// Set must replace the whole value atomically; a reader never observes a
// partially written value.
// Implementations must be safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
