// Package store holds the disaster and resource persistence backends.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/google/uuid"
)

// Memory is an in-process DisasterStore and ResourceStore for local runs
// and tests.
type Memory struct {
	mu        sync.RWMutex
	disasters map[string]domain.Disaster
	resources []domain.Resource
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{disasters: make(map[string]domain.Disaster)}
}

func (m *Memory) Insert(_ context.Context, d domain.Disaster) (domain.Disaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d.ID = uuid.NewString()
	d.CreatedAt = domain.Now()
	d = cloneDisaster(d)
	m.disasters[d.ID] = d
	return cloneDisaster(d), nil
}

func (m *Memory) Get(_ context.Context, id string) (domain.Disaster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.disasters[id]
	if !ok {
		return domain.Disaster{}, fmt.Errorf("disaster %s: %w", id, domain.ErrNotFound)
	}
	return cloneDisaster(d), nil
}

func (m *Memory) List(_ context.Context, tag string) ([]domain.Disaster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Disaster, 0, len(m.disasters))
	for _, d := range m.disasters {
		if tag != "" && !d.HasTag(tag) {
			continue
		}
		out = append(out, cloneDisaster(d))
	}
	slices.SortFunc(out, func(a, b domain.Disaster) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, d domain.Disaster) (domain.Disaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.disasters[d.ID]
	if !ok {
		return domain.Disaster{}, fmt.Errorf("disaster %s: %w", d.ID, domain.ErrNotFound)
	}
	d.OwnerID = existing.OwnerID
	d.CreatedAt = existing.CreatedAt
	m.disasters[d.ID] = cloneDisaster(d)
	return cloneDisaster(d), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.disasters[id]; !ok {
		return fmt.Errorf("disaster %s: %w", id, domain.ErrNotFound)
	}
	delete(m.disasters, id)
	return nil
}

// AddResource registers a resource for proximity queries.
func (m *Memory) AddResource(r domain.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.resources = append(m.resources, r)
}

// FindNearby returns the disaster's resources within radiusMeters of the
// point, nearest first.
func (m *Memory) FindNearby(_ context.Context, disasterID string, lat, lng, radiusMeters float64) ([]domain.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type hit struct {
		r    domain.Resource
		dist float64
	}
	var hits []hit
	for _, r := range m.resources {
		if r.DisasterID != disasterID {
			continue
		}
		dist := domain.DistanceMeters(lat, lng, r.Lat, r.Lng)
		if dist > radiusMeters {
			continue
		}
		r.Distance = domain.FormatDistance(dist)
		hits = append(hits, hit{r: r, dist: dist})
	}
	slices.SortFunc(hits, func(a, b hit) int { return cmp.Compare(a.dist, b.dist) })

	out := make([]domain.Resource, len(hits))
	for i, h := range hits {
		out[i] = h.r
	}
	return out, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// cloneDisaster copies the slices so callers never share backing arrays.
// Missing tags become an empty list, matching the postgres column default.
func cloneDisaster(d domain.Disaster) domain.Disaster {
	d.Tags = slices.Clone(d.Tags)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.AuditTrail = slices.Clone(d.AuditTrail)
	return d
}
