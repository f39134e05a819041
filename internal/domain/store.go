package domain

import (
	"context"
	"fmt"
	"math"
)

// DisasterStore persists disasters. Get, Update and Delete return an error
// wrapping ErrNotFound for an unknown id; write failures are
// *PersistenceError.
type DisasterStore interface {
	// Insert assigns the identifier and creation time and returns the stored record.
	Insert(ctx context.Context, d Disaster) (Disaster, error)
	Get(ctx context.Context, id string) (Disaster, error)
	// List returns disasters newest first, restricted to those tagged tag
	// when tag is non-empty.
	List(ctx context.Context, tag string) ([]Disaster, error)
	// Update replaces every mutable field of the record with id d.ID.
	Update(ctx context.Context, d Disaster) (Disaster, error)
	Delete(ctx context.Context, id string) error
}

// ResourceStore answers proximity queries over relief resources.
type ResourceStore interface {
	FindNearby(ctx context.Context, disasterID string, lat, lng, radiusMeters float64) ([]Resource, error)
}

const earthRadiusMeters = 6371000.0

// DistanceMeters is the great-circle distance between two points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(math.Min(1, a)))
}

// FormatDistance renders meters the way resource listings show it, e.g. "2.5km".
func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1fkm", meters/1000)
}
