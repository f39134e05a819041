package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

// Memo layers typed JSON values and the fixed TTL over a CacheStore. Store
// failures are logged and treated as misses; they never fail the caller.
type Memo struct {
	store   domain.CacheStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMemo wraps store.
func NewMemo(store domain.CacheStore, logger *slog.Logger, metrics *observability.Metrics) *Memo {
	return &Memo{store: store, logger: logger, metrics: metrics}
}

// Load returns the value stored under key when an unexpired entry exists.
func Load[T any](ctx context.Context, m *Memo, key string) (T, bool) {
	var zero T
	ns := namespaceOf(key)

	entry, ok, err := m.store.Get(ctx, key)
	switch {
	case err != nil:
		m.logger.Warn("cache read failed", "key", key, "error", err)
		m.metrics.CacheLookups.WithLabelValues(ns, "error").Inc()
		return zero, false
	case !ok:
		m.metrics.CacheLookups.WithLabelValues(ns, "miss").Inc()
		return zero, false
	case !entry.Fresh(domain.Now()):
		m.metrics.CacheLookups.WithLabelValues(ns, "stale").Inc()
		return zero, false
	}

	var v T
	if err := json.Unmarshal(entry.Value, &v); err != nil {
		m.logger.Warn("cache entry undecodable", "key", key, "error", err)
		m.metrics.CacheLookups.WithLabelValues(ns, "error").Inc()
		return zero, false
	}
	m.metrics.CacheLookups.WithLabelValues(ns, "hit").Inc()
	return v, true
}

// Save upserts v under key, expiring one CacheTTL from now.
func (m *Memo) Save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	entry := domain.CacheEntry{
		Key:       key,
		Value:     data,
		ExpiresAt: domain.Now().Add(domain.CacheTTL),
	}
	if err := m.store.Set(ctx, entry); err != nil {
		m.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// namespaceOf returns the prefix up to the first underscore, for metric labels.
func namespaceOf(key string) string {
	ns, _, found := strings.Cut(key, "_")
	if !found {
		return "unknown"
	}
	return ns
}
