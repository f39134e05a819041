// Package nominatim implements domain.Geocoder with the OpenStreetMap
// Nominatim free-text search.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

// Nominatim's usage policy requires an identifying User-Agent.
const (
	DefaultUserAgent = "DisasterResponseApp/1.0 (contact@yourdomain.com)"
	DefaultReferer   = "https://disaster-response-frontend.onrender.com/"
)

// Client queries /search with limit=1.
type Client struct {
	userAgent  string
	referer    string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim client. Empty userAgent or referer fall
// back to the defaults.
func NewClient(userAgent, referer string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if referer == "" {
		referer = DefaultReferer
	}
	return &Client{
		userAgent:  userAgent,
		referer:    referer,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://nominatim.openstreetmap.org",
		logger:     logger,
		metrics:    metrics,
	}
}

// Geocode returns the first search hit for locationName.
func (c *Client) Geocode(ctx context.Context, locationName string) (domain.Coordinates, error) {
	start := time.Now()
	coords, err := c.doRequest(ctx, locationName)
	c.metrics.UpstreamDuration.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("nominatim").Inc()
		c.logger.Debug("nominatim geocode failed", "query", locationName, "error", err)
	}
	return coords, err
}

func (c *Client) doRequest(ctx context.Context, locationName string) (domain.Coordinates, error) {
	params := url.Values{
		"q":      {locationName},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", c.referer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Coordinates{}, fmt.Errorf("nominatim error: status %d: %s: %w", resp.StatusCode, body, domain.ErrUpstream)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode response: %w: %w", domain.ErrUpstream, err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("nominatim %q: %w", locationName, domain.ErrNoResults)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lat %q: %w: %w", places[0].Lat, domain.ErrUpstream, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lon %q: %w: %w", places[0].Lon, domain.ErrUpstream, err)
	}
	return domain.Coordinates{Lat: lat, Lng: lng}, nil
}

// Nominatim returns coordinates as decimal strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
