package domain

import "context"

// LocationExtractor pulls a place name out of free text.
type LocationExtractor interface {
	ExtractLocation(ctx context.Context, description string) (string, error)
}

// Geocoder converts a place name to coordinates. Implementations return an
// error wrapping ErrNoResults when the provider matched nothing.
type Geocoder interface {
	Geocode(ctx context.Context, locationName string) (Coordinates, error)
}
