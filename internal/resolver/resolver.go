// Package resolver turns free-text disaster descriptions into a place name
// and coordinates through two extraction tiers and two geocoding tiers,
// memoizing successful results for one hour.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/couchcryptid/disaster-response-service/internal/cache"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

// Resolution failure messages surfaced to clients.
const (
	MsgNoLocationName  = "Could not determine a location name"
	MsgGeocodingFailed = "All geocoding attempts failed"
)

var errNotConfigured = errors.New("provider not configured")

// Resolver implements the extraction and geocoding chain. Any of the
// collaborators may be nil: a nil extractor or geocoder counts as a failed
// tier, and a nil memo disables caching.
type Resolver struct {
	extractor domain.LocationExtractor
	primary   domain.Geocoder
	fallback  domain.Geocoder
	memo      *cache.Memo
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Resolver.
func New(
	extractor domain.LocationExtractor,
	primary, fallback domain.Geocoder,
	memo *cache.Memo,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Resolver {
	return &Resolver{
		extractor: extractor,
		primary:   primary,
		fallback:  fallback,
		memo:      memo,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve returns the location named by description. It fails with a
// *domain.ResolutionError when no name can be determined or when neither
// geocoder finds coordinates for it.
func (r *Resolver) Resolve(ctx context.Context, description string) (domain.GeocodeResult, error) {
	key := domain.CacheKey(domain.NamespaceGeocode, description)
	if r.memo != nil {
		if cached, ok := cache.Load[domain.GeocodeResult](ctx, r.memo, key); ok {
			r.stage("cache")
			return cached, nil
		}
	}

	name := r.extract(ctx, description)
	if name == "" {
		r.stage("failed")
		return domain.GeocodeResult{}, &domain.ResolutionError{Msg: MsgNoLocationName}
	}

	coords, err := r.geocode(ctx, name)
	if err != nil {
		r.stage("failed")
		return domain.GeocodeResult{}, &domain.ResolutionError{Msg: MsgGeocodingFailed, Err: err}
	}

	result := domain.GeocodeResult{LocationName: name, Lat: coords.Lat, Lng: coords.Lng}
	if r.memo != nil {
		r.memo.Save(ctx, key, result)
	}
	return result, nil
}

func (r *Resolver) extract(ctx context.Context, description string) string {
	err := errNotConfigured
	if r.extractor != nil {
		var name string
		name, err = r.extractor.ExtractLocation(ctx, description)
		name = strings.TrimSpace(name)
		if err == nil && name != "" {
			r.stage("extract")
			return name
		}
		if err == nil {
			err = errors.New("empty extraction")
		}
	}

	name := domain.FallbackLocationName(description)
	r.logger.Warn("location extraction failed, using text fallback",
		"error", err,
		"location_name", name,
	)
	r.stage("extract_fallback")
	return name
}

func (r *Resolver) geocode(ctx context.Context, name string) (domain.Coordinates, error) {
	err := errNotConfigured
	if r.primary != nil {
		var coords domain.Coordinates
		coords, err = r.primary.Geocode(ctx, name)
		if err == nil {
			r.stage("geocode")
			return coords, nil
		}
	}
	r.logger.Warn("primary geocoding failed, trying fallback", "location_name", name, "error", err)

	if r.fallback == nil {
		return domain.Coordinates{}, errors.Join(err, errNotConfigured)
	}
	coords, ferr := r.fallback.Geocode(ctx, name)
	if ferr != nil {
		return domain.Coordinates{}, errors.Join(err, ferr)
	}
	r.stage("geocode_fallback")
	return coords, nil
}

func (r *Resolver) stage(name string) {
	r.metrics.ResolveOutcomes.WithLabelValues(name).Inc()
}
