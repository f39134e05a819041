// Package mapbox implements domain.Geocoder with the Mapbox forward
// geocoding API, as an alternative primary geocoder to Google Maps.
package mapbox

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

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode converts a place name to the coordinates of the best match.
func (c *Client) Geocode(ctx context.Context, locationName string) (domain.Coordinates, error) {
	if c.token == "" {
		return domain.Coordinates{}, fmt.Errorf("mapbox: token not set: %w", domain.ErrUpstream)
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(locationName))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}

	start := time.Now()
	coords, err := c.doRequest(ctx, u+"?"+params.Encode(), locationName)
	c.metrics.UpstreamDuration.WithLabelValues("mapbox").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("mapbox").Inc()
	}
	return coords, err
}

func (c *Client) doRequest(ctx context.Context, fullURL, locationName string) (domain.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("mapbox geocode request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Coordinates{}, fmt.Errorf("mapbox API error: status %d: %s: %w", resp.StatusCode, body, domain.ErrUpstream)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode response: %w: %w", domain.ErrUpstream, err)
	}

	if len(mapboxResp.Features) == 0 || len(mapboxResp.Features[0].Center) != 2 {
		return domain.Coordinates{}, fmt.Errorf("mapbox %q: %w", locationName, domain.ErrNoResults)
	}

	f := mapboxResp.Features[0]
	c.logger.Debug("mapbox match", "query", locationName, "place_name", f.PlaceName, "relevance", f.Relevance)
	return domain.Coordinates{Lat: f.Center[1], Lng: f.Center[0]}, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
