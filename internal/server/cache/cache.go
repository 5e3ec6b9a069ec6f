// Package cache provides the sliding-expiration key/value caches used to
// resolve token subjects to application user ids.
package cache

import "context"

// Cache stores string values under string keys. Every hit extends the
// entry's lifetime by the cache's configured TTL.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
