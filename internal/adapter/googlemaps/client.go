// Package googlemaps implements domain.Geocoder with the Google Maps
// Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

// Client geocodes place names through maps.googleapis.com.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Google Maps geocoding client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
		logger:     logger,
		metrics:    metrics,
	}
}

// Geocode returns the coordinates of the first result for locationName.
func (c *Client) Geocode(ctx context.Context, locationName string) (domain.Coordinates, error) {
	if c.apiKey == "" {
		return domain.Coordinates{}, fmt.Errorf("google maps: api key not set: %w", domain.ErrUpstream)
	}

	start := time.Now()
	coords, err := c.doRequest(ctx, locationName)
	c.metrics.UpstreamDuration.WithLabelValues("googlemaps").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("googlemaps").Inc()
		c.logger.Debug("google maps geocode failed", "query", locationName, "error", err)
	}
	return coords, err
}

func (c *Client) doRequest(ctx context.Context, locationName string) (domain.Coordinates, error) {
	params := url.Values{
		"address": {locationName},
		"key":     {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("google maps request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Coordinates{}, fmt.Errorf("google maps API error: status %d: %s: %w", resp.StatusCode, body, domain.ErrUpstream)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode response: %w: %w", domain.ErrUpstream, err)
	}

	// The API reports quota and key problems with a 200 and a status field.
	if out.Status != "" && out.Status != "OK" && out.Status != "ZERO_RESULTS" {
		return domain.Coordinates{}, fmt.Errorf("google maps status %s: %s: %w", out.Status, out.ErrorMessage, domain.ErrUpstream)
	}
	if len(out.Results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("google maps %q: %w", locationName, domain.ErrNoResults)
	}

	loc := out.Results[0].Geometry.Location
	return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Geocoding API response types.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type result struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
