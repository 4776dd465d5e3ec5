// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value cache. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
