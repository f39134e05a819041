package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CacheTTL is the lifetime of every cache entry, for all namespaces.
const CacheTTL = time.Hour

// CacheEntry is a memoized JSON payload with an explicit expiry.
type CacheEntry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Fresh reports whether the entry is still valid at now.
func (e CacheEntry) Fresh(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// CacheStore is a key/value store with upsert-by-key semantics. Get returns
// ok=false when the key is absent; it does not filter stale entries, callers
// check Fresh.
type CacheStore interface {
	Get(ctx context.Context, key string) (entry CacheEntry, ok bool, err error)
	Set(ctx context.Context, entry CacheEntry) error
}
