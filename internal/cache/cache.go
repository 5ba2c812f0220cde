// Package cache provides a byte cache for computed recommendations.
// Supports a local in-memory backend and Redis for multi-instance deployments.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache defines the interface for recommendation cache storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value for key.
	// Returns nil, nil on a miss or an expired entry.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. A non-positive ttl means the
	// backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key derives a fixed-length cache key from its parts. Parts are joined with
// a NUL separator so ("ab","c") and ("a","bc") never collide.
func Key(namespace string, parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x00"))
	return namespace + ":" + strconv.FormatUint(sum, 16)
}
