package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const disasterColumns = `id, title, description, tags, owner_id, location_name, lat, lng, audit_trail, created_at`

// Postgres is a DisasterStore and ResourceStore backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// Open connects to databaseURL, verifies the connection and applies the schema.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// NewPostgres wraps an open database whose schema is already applied.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Insert(ctx context.Context, d domain.Disaster) (domain.Disaster, error) {
	trail, err := json.Marshal(d.AuditTrail)
	if err != nil {
		return domain.Disaster{}, &domain.PersistenceError{Op: "insert disaster", Err: err}
	}
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO disasters (id, title, description, tags, owner_id, location_name, lat, lng, audit_trail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+disasterColumns,
		uuid.NewString(), d.Title, d.Description, pq.Array(nonNil(d.Tags)), d.OwnerID,
		d.LocationName, d.Location.Lat(), d.Location.Lng(), trail, domain.Now(),
	)
	out, err := scanDisaster(row)
	if err != nil {
		return domain.Disaster{}, &domain.PersistenceError{Op: "insert disaster", Err: err}
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (domain.Disaster, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Disaster{}, fmt.Errorf("disaster %s: %w", id, domain.ErrNotFound)
	}
	row := p.db.QueryRowContext(ctx, `SELECT `+disasterColumns+` FROM disasters WHERE id = $1`, id)
	d, err := scanDisaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Disaster{}, fmt.Errorf("disaster %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Disaster{}, &domain.PersistenceError{Op: "get disaster", Err: err}
	}
	return d, nil
}

func (p *Postgres) List(ctx context.Context, tag string) ([]domain.Disaster, error) {
	query := `SELECT ` + disasterColumns + ` FROM disasters`
	var args []any
	if tag != "" {
		query += ` WHERE $1 = ANY(tags)`
		args = append(args, tag)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list disasters", Err: err}
	}
	defer rows.Close()

	out := []domain.Disaster{}
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "list disasters", Err: err}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list disasters", Err: err}
	}
	return out, nil
}

func (p *Postgres) Update(ctx context.Context, d domain.Disaster) (domain.Disaster, error) {
	if _, err := uuid.Parse(d.ID); err != nil {
		return domain.Disaster{}, fmt.Errorf("disaster %s: %w", d.ID, domain.ErrNotFound)
	}
	trail, err := json.Marshal(d.AuditTrail)
	if err != nil {
		return domain.Disaster{}, &domain.PersistenceError{Op: "update disaster", Err: err}
	}
	row := p.db.QueryRowContext(ctx, `
		UPDATE disasters
		SET title = $2, description = $3, tags = $4, location_name = $5, lat = $6, lng = $7, audit_trail = $8
		WHERE id = $1
		RETURNING `+disasterColumns,
		d.ID, d.Title, d.Description, pq.Array(nonNil(d.Tags)), d.LocationName,
		d.Location.Lat(), d.Location.Lng(), trail,
	)
	out, err := scanDisaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Disaster{}, fmt.Errorf("disaster %s: %w", d.ID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Disaster{}, &domain.PersistenceError{Op: "update disaster", Err: err}
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("disaster %s: %w", id, domain.ErrNotFound)
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM disasters WHERE id = $1`, id)
	if err != nil {
		return &domain.PersistenceError{Op: "delete disaster", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: "delete disaster", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("disaster %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddResource inserts or replaces a resource.
func (p *Postgres) AddResource(ctx context.Context, r domain.Resource) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO resources (id, disaster_id, name, location_name, type, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			disaster_id = EXCLUDED.disaster_id, name = EXCLUDED.name,
			location_name = EXCLUDED.location_name, type = EXCLUDED.type,
			lat = EXCLUDED.lat, lng = EXCLUDED.lng`,
		r.ID, r.DisasterID, r.Name, r.LocationName, r.Type, r.Lat, r.Lng,
	)
	if err != nil {
		return &domain.PersistenceError{Op: "insert resource", Err: err}
	}
	return nil
}

// FindNearby filters by great-circle distance computed in SQL, nearest first.
func (p *Postgres) FindNearby(ctx context.Context, disasterID string, lat, lng, radiusMeters float64) ([]domain.Resource, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, disaster_id, name, location_name, type, lat, lng, dist FROM (
			SELECT *, 2 * 6371000 * asin(sqrt(least(1.0,
				power(sin(radians(lat - $2) / 2), 2) +
				cos(radians($2)) * cos(radians(lat)) * power(sin(radians(lng - $3) / 2), 2)
			))) AS dist
			FROM resources
			WHERE disaster_id = $1
		) r
		WHERE dist <= $4
		ORDER BY dist`,
		disasterID, lat, lng, radiusMeters,
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "find resources", Err: err}
	}
	defer rows.Close()

	out := []domain.Resource{}
	for rows.Next() {
		var r domain.Resource
		var dist float64
		if err := rows.Scan(&r.ID, &r.DisasterID, &r.Name, &r.LocationName, &r.Type, &r.Lat, &r.Lng, &dist); err != nil {
			return nil, &domain.PersistenceError{Op: "find resources", Err: err}
		}
		r.Distance = domain.FormatDistance(dist)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "find resources", Err: err}
	}
	return out, nil
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDisaster(s scanner) (domain.Disaster, error) {
	var (
		d        domain.Disaster
		tags     pq.StringArray
		lat, lng float64
		trail    []byte
	)
	if err := s.Scan(&d.ID, &d.Title, &d.Description, &tags, &d.OwnerID,
		&d.LocationName, &lat, &lng, &trail, &d.CreatedAt); err != nil {
		return domain.Disaster{}, err
	}
	if err := json.Unmarshal(trail, &d.AuditTrail); err != nil {
		return domain.Disaster{}, fmt.Errorf("decode audit trail: %w", err)
	}
	d.Tags = []string(tags)
	d.Location = domain.NewGeoPoint(lat, lng)
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
