//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
}

func TestSmoke_Geocode(t *testing.T) {
	c := smokeClient(t)

	coords, err := c.Geocode(context.Background(), "Manhattan, New York")
	require.NoError(t, err)

	assert.InDelta(t, 40.78, coords.Lat, 0.2, "lat should be near Manhattan")
	assert.InDelta(t, -73.97, coords.Lng, 0.2, "lng should be near Manhattan")
}

func TestSmoke_Geocode_Nonsense(t *testing.T) {
	c := smokeClient(t)

	// Mapbox's fuzzy matching may still return results for nonsense queries,
	// so only a no-results error is acceptable.
	_, err := c.Geocode(context.Background(), "XYZNONEXISTENT99")
	if err != nil {
		require.ErrorIs(t, err, domain.ErrNoResults)
	}
}
