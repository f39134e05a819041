// Package app builds the location resolver from configuration for the
// server and the resolve CLI.
package app

import (
	"log/slog"

	"github.com/couchcryptid/disaster-response-service/internal/adapter/gemini"
	"github.com/couchcryptid/disaster-response-service/internal/adapter/googlemaps"
	"github.com/couchcryptid/disaster-response-service/internal/adapter/mapbox"
	"github.com/couchcryptid/disaster-response-service/internal/adapter/nominatim"
	"github.com/couchcryptid/disaster-response-service/internal/cache"
	"github.com/couchcryptid/disaster-response-service/internal/config"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/couchcryptid/disaster-response-service/internal/resolver"
)

// Providers are the upstream clients built from configuration.
type Providers struct {
	Gemini    *gemini.Client
	Primary   domain.Geocoder
	Fallback  domain.Geocoder
	Nominatim *nominatim.Client
}

// NewProviders builds the extraction and geocoding clients. Clients without
// credentials are still built; they fail fast and the resolver falls through.
func NewProviders(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) Providers {
	g := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVisionModel, cfg.UpstreamTimeout, logger, metrics)
	n := nominatim.NewClient(cfg.NominatimUserAgent, cfg.NominatimReferer, cfg.UpstreamTimeout, logger, metrics)

	var primary domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderMapbox:
		primary = mapbox.NewClient(cfg.MapboxToken, cfg.UpstreamTimeout, logger, metrics)
	default:
		primary = googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.UpstreamTimeout, logger, metrics)
	}

	logger.Info("location providers configured",
		"geocoder", cfg.GeocoderProvider,
		"gemini_configured", cfg.GeminiAPIKey != "",
		"google_configured", cfg.GoogleMapsAPIKey != "",
		"mapbox_configured", cfg.MapboxToken != "",
	)
	return Providers{Gemini: g, Primary: primary, Fallback: n, Nominatim: n}
}

// NewResolver wires the providers into a Resolver. A nil memo disables caching.
func NewResolver(p Providers, memo *cache.Memo, logger *slog.Logger, metrics *observability.Metrics) *resolver.Resolver {
	return resolver.New(p.Gemini, p.Primary, p.Fallback, memo, logger, metrics)
}
