package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

const createCacheTable = `CREATE TABLE IF NOT EXISTS cache (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

// Postgres is a CacheStore backed by a "cache" table, upserting by key.
type Postgres struct {
	db *sql.DB
}

// NewPostgres ensures the cache table exists and returns a store using db.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, createCacheTable); err != nil {
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	entry := domain.CacheEntry{Key: key}
	var value []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache WHERE key = $1`, key,
	).Scan(&value, &entry.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("select cache %s: %w", key, err)
	}
	entry.Value = value
	entry.ExpiresAt = entry.ExpiresAt.UTC()
	return entry, true, nil
}

func (p *Postgres) Set(ctx context.Context, entry domain.CacheEntry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO cache (key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		entry.Key, []byte(entry.Value), entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cache %s: %w", entry.Key, err)
	}
	return nil
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
