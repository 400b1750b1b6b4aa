// Package cache stores generated point sets so that deterministic
// generations are computed once.
//
// Values are opaque byte slices (the point file encoding in practice). Three
// backends implement Cache:
//
//   - FileCache: one JSON entry per key under a local directory (CLI default)
//   - RedisCache: a shared Redis instance, for several hosts
//   - NullCache: stores nothing (--no-cache and tests)
//
// Keys come from a Keyer so that key layout stays in one place.
package cache

import (
	"context"
	"time"
)

// TTLPoints is how long a generated point set stays cached.
const TTLPoints = 7 * 24 * time.Hour

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
