// Package db defines the key-value store abstraction used for caching.
package db

import (
	"context"
	"time"
)

// Store is the key-value contract the cache layer runs on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close()
}
