package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/cache"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeExtractor struct {
	calls int
	name  string
	err   error
}

func (f *fakeExtractor) ExtractLocation(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.name, f.err
}

type fakeGeocoder struct {
	calls  int
	got    []string
	coords domain.Coordinates
	err    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, name string) (domain.Coordinates, error) {
	f.calls++
	f.got = append(f.got, name)
	return f.coords, f.err
}

var errDown = errors.New("connection refused")

type harness struct {
	resolver  *Resolver
	extractor *fakeExtractor
	primary   *fakeGeocoder
	fallback  *fakeGeocoder
	store     *cache.Memory
	metrics   *observability.Metrics
	clock     *clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	h := &harness{
		extractor: &fakeExtractor{name: "Manhattan"},
		primary:   &fakeGeocoder{coords: domain.Coordinates{Lat: 40.7831, Lng: -73.9712}},
		fallback:  &fakeGeocoder{coords: domain.Coordinates{Lat: 40.7896, Lng: -73.9598}},
		store:     cache.NewMemory(100),
		metrics:   observability.NewMetricsForTesting(),
		clock:     clock,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memo := cache.NewMemo(h.store, logger, h.metrics)
	h.resolver = New(h.extractor, h.primary, h.fallback, memo, logger, h.metrics)
	return h
}

func (h *harness) stageCount(stage string) float64 {
	return testutil.ToFloat64(h.metrics.ResolveOutcomes.WithLabelValues(stage))
}

// --- tests ---

func TestResolve_PrimaryPath(t *testing.T) {
	h := newHarness(t)

	got, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan due to heavy rain.")
	require.NoError(t, err)

	assert.Equal(t, domain.GeocodeResult{LocationName: "Manhattan", Lat: 40.7831, Lng: -73.9712}, got)
	assert.Equal(t, []string{"Manhattan"}, h.primary.got)
	assert.Equal(t, 0, h.fallback.calls)
	assert.InDelta(t, 1, h.stageCount("extract"), 0)
	assert.InDelta(t, 1, h.stageCount("geocode"), 0)
}

func TestResolve_TrimsExtractedName(t *testing.T) {
	h := newHarness(t)
	h.extractor.name = "  Brooklyn\n"

	got, err := h.resolver.Resolve(context.Background(), "Fire in Brooklyn")
	require.NoError(t, err)
	assert.Equal(t, "Brooklyn", got.LocationName)
}

func TestResolve_ExtractionFailureUsesTextRule(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = errDown

	got, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan due to heavy rain.")
	require.NoError(t, err)

	assert.Equal(t, "Manhattan", got.LocationName)
	assert.Equal(t, []string{"Manhattan"}, h.primary.got)
	assert.InDelta(t, 1, h.stageCount("extract_fallback"), 0)
}

func TestResolve_EmptyExtractionUsesTextRule(t *testing.T) {
	h := newHarness(t)
	h.extractor.name = "   "

	got, err := h.resolver.Resolve(context.Background(), "Evacuation in Lower East Side because of rising water")
	require.NoError(t, err)
	assert.Equal(t, "Lower East Side", got.LocationName)
}

func TestResolve_NoExtractorConfigured(t *testing.T) {
	h := newHarness(t)
	h.resolver.extractor = nil

	got, err := h.resolver.Resolve(context.Background(), "Chinatown fire! Smoke everywhere.")
	require.NoError(t, err)
	assert.Equal(t, "Chinatown fire", got.LocationName)
}

func TestResolve_NoLocationName(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = errDown

	_, err := h.resolver.Resolve(context.Background(), ". nothing before the dot")

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, MsgNoLocationName, resErr.Error())
	assert.Equal(t, 0, h.primary.calls, "geocoding must not run without a name")
	assert.Equal(t, 0, h.store.Len())
}

func TestResolve_PrimaryGeocoderFailsUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.primary.err = errDown

	got, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan")
	require.NoError(t, err)

	assert.Equal(t, domain.GeocodeResult{LocationName: "Manhattan", Lat: 40.7896, Lng: -73.9598}, got)
	assert.Equal(t, []string{"Manhattan"}, h.fallback.got)
	assert.InDelta(t, 1, h.stageCount("geocode_fallback"), 0)
}

func TestResolve_PrimaryGeocoderNoResultsUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.primary.err = fmt.Errorf("google: %w", domain.ErrNoResults)

	_, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan")
	require.NoError(t, err)
	assert.Equal(t, 1, h.fallback.calls)
}

func TestResolve_NoPrimaryGeocoderConfigured(t *testing.T) {
	h := newHarness(t)
	h.resolver.primary = nil

	_, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan")
	require.NoError(t, err)
	assert.Equal(t, 1, h.fallback.calls)
}

func TestResolve_AllGeocodersFail(t *testing.T) {
	h := newHarness(t)
	h.primary.err = errDown
	h.fallback.err = fmt.Errorf("nominatim: %w", domain.ErrNoResults)

	_, err := h.resolver.Resolve(context.Background(), "Flood in Atlantis")

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, MsgGeocodingFailed, resErr.Error())
	require.ErrorIs(t, err, domain.ErrNoResults)
	assert.Equal(t, 0, h.store.Len(), "failures are not cached")
	assert.InDelta(t, 1, h.stageCount("failed"), 0)
}

func TestResolve_CacheHitSkipsUpstreams(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	desc := "Flood in Manhattan due to heavy rain."

	first, err := h.resolver.Resolve(ctx, desc)
	require.NoError(t, err)

	h.clock.Advance(59 * time.Minute)
	second, err := h.resolver.Resolve(ctx, desc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.extractor.calls)
	assert.Equal(t, 1, h.primary.calls)
	assert.InDelta(t, 1, h.stageCount("cache"), 0)
}

func TestResolve_CacheKeyStripsPunctuation(t *testing.T) {
	h := newHarness(t)

	_, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan!")
	require.NoError(t, err)

	entry, ok, err := h.store.Get(context.Background(), "geocode_FloodinManhattan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h.clock.Now().Add(time.Hour), entry.ExpiresAt)
	assert.JSONEq(t, `{"location_name":"Manhattan","lat":40.7831,"lng":-73.9712}`, string(entry.Value))
}

func TestResolve_ExpiredEntryIsRecomputed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.resolver.Resolve(ctx, "Flood in Manhattan")
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	h.primary.coords = domain.Coordinates{Lat: 1, Lng: 2}

	got, err := h.resolver.Resolve(ctx, "Flood in Manhattan")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Lat, 0)
	assert.Equal(t, 2, h.extractor.calls)
	assert.Equal(t, 2, h.primary.calls)
}

func TestResolve_WithoutCache(t *testing.T) {
	h := newHarness(t)
	h.resolver.memo = nil

	_, err := h.resolver.Resolve(context.Background(), "Flood in Manhattan")
	require.NoError(t, err)
	_, err = h.resolver.Resolve(context.Background(), "Flood in Manhattan")
	require.NoError(t, err)

	assert.Equal(t, 2, h.extractor.calls)
	assert.Equal(t, 0, h.store.Len())
}
