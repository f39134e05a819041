package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/disaster-response-service/internal/adapter/http"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/couchcryptid/disaster-response-service/internal/service"
	"github.com/couchcryptid/disaster-response-service/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fakeResolver struct {
	calls  int
	result domain.GeocodeResult
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (domain.GeocodeResult, error) {
	f.calls++
	return f.result, f.err
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []domain.DisasterEvent
}

func (b *recordingBroadcaster) BroadcastGlobal(_ context.Context, _ string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev, ok := payload.(domain.DisasterEvent); ok {
		b.events = append(b.events, ev)
	}
}

func (b *recordingBroadcaster) BroadcastToGroup(context.Context, string, string, any) {}

type fakeFeeds struct {
	calls      int
	gotLat     float64
	gotLng     float64
	gotImage   string
	source     domain.DataSource
	err        error
	posts      []domain.SocialPost
	resources  []domain.Resource
	updates    []domain.OfficialUpdate
	verdict    domain.Verification
}

func (f *fakeFeeds) SocialMedia(context.Context, string) ([]domain.SocialPost, domain.DataSource, error) {
	f.calls++
	return f.posts, f.source, f.err
}

func (f *fakeFeeds) Resources(_ context.Context, _ string, lat, lng float64) ([]domain.Resource, domain.DataSource, error) {
	f.calls++
	f.gotLat, f.gotLng = lat, lng
	return f.resources, f.source, f.err
}

func (f *fakeFeeds) OfficialUpdates(context.Context, string) ([]domain.OfficialUpdate, domain.DataSource, error) {
	f.calls++
	return f.updates, f.source, f.err
}

func (f *fakeFeeds) VerifyImage(_ context.Context, _, imageURL string) (domain.Verification, domain.DataSource, error) {
	f.calls++
	f.gotImage = imageURL
	if imageURL == "" {
		return domain.Verification{}, "", domain.NewValidationError("image_url is required")
	}
	return f.verdict, f.source, f.err
}

type harness struct {
	srv         *httpadapter.Server
	store       *store.Memory
	resolver    *fakeResolver
	feeds       *fakeFeeds
	broadcaster *recordingBroadcaster
	metrics     *observability.Metrics
}

func newHarness(t *testing.T, readyErr error) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		store: store.NewMemory(),
		resolver: &fakeResolver{result: domain.GeocodeResult{
			LocationName: "Test City", Lat: 41.5, Lng: -73.25,
		}},
		feeds:       &fakeFeeds{source: domain.SourceLive},
		broadcaster: &recordingBroadcaster{},
		metrics:     observability.NewMetricsForTesting(),
	}
	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Disasters:   service.NewDisasters(h.store, h.resolver, h.broadcaster, logger),
		Feeds:       h.feeds,
		Resolver:    h.resolver,
		Ready:       &mockReadiness{err: readyErr},
		AdminUsers:  []string{"netrunnerX", "reliefAdmin"},
		CORSOrigins: []string{"*"},
		Logger:      logger,
		Metrics:     h.metrics,
	})
	h.srv = httpadapter.NewServer(":0", router, logger)
	return h
}

func (h *harness) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("x-user", user)
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

// --- health, readiness, metrics ---

func TestHealthzReturns200(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/readyz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	h := newHarness(t, errors.New("cache: connection refused"))

	rec := h.do(t, http.MethodGet, "/readyz", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBanner(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/", "/test"} {
		rec := h.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, httpadapter.Banner, rec.Body.String(), path)
	}
}

func TestRequestsAreCountedByRoute(t *testing.T) {
	h := newHarness(t, nil)

	h.do(t, http.MethodGet, "/disasters", "netrunnerX", nil)

	assert.Equal(t, 1, testutil.CollectAndCount(h.metrics.HTTPRequests))
	assert.Equal(t, 1, testutil.CollectAndCount(h.metrics.HTTPDuration))
}

// --- auth ---

func TestMissingUserIs401(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/disasters", "/disasters/d1/social-media"} {
		rec := h.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Missing user", decodeError(t, rec), path)
	}
	rec := h.do(t, http.MethodPost, "/geocode", "", map[string]string{"description": "Flood in Queens"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, h.resolver.calls)
}

func TestUserFrom(t *testing.T) {
	_, ok := httpadapter.UserFrom(context.Background())
	assert.False(t, ok)
}

// --- disasters ---

func TestCreateDisaster(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{
		"title": "Test", "description": "Flood in Test City.", "tags": []string{"flood"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d domain.Disaster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "netrunnerX", d.OwnerID)
	assert.Equal(t, "Test City", d.LocationName)
	require.Len(t, d.AuditTrail, 1)
	assert.Equal(t, "create", d.AuditTrail[0].Action)
	assert.Equal(t, "Point", d.Location.Type)
	require.Len(t, h.broadcaster.events, 1)
}

func TestCreateDisaster_MissingFields(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{"title": "Test"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title and description are required", decodeError(t, rec))
	all, err := h.store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateDisaster_EmptyBody(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/disasters", "netrunnerX", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title and description are required", decodeError(t, rec))
}

func TestCreateDisaster_MalformedJSON(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/disasters", bytes.NewBufferString("{not json"))
	req.Header.Set("x-user", "netrunnerX")
	rec := httptest.NewRecorder()

	h.srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decodeError(t, rec))
}

func TestCreateDisaster_ResolutionFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.err = &domain.ResolutionError{Msg: "All geocoding attempts failed"}

	rec := h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{
		"title": "Test", "description": "Somewhere",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Location extraction failed: All geocoding attempts failed", decodeError(t, rec))
}

func TestListDisasters(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/disasters", "citizen1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{
		"title": "Flood", "description": "Flood in Test City.", "tags": []string{"flood"},
	})
	h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{
		"title": "Fire", "description": "Fire in Test City.", "tags": []string{"fire"},
	})

	rec = h.do(t, http.MethodGet, "/disasters?tag=fire", "citizen1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Disaster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Fire", got[0].Title)
}

func TestUpdateDisaster(t *testing.T) {
	h := newHarness(t, nil)
	created := h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{
		"title": "Flood", "description": "Flood in Test City.",
	})
	var d domain.Disaster
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &d))

	rec := h.do(t, http.MethodPut, "/disasters/"+d.ID, "reliefAdmin", map[string]any{
		"title": "Flood (worsening)", "location_name": "Lower Test City",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Disaster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Flood (worsening)", updated.Title)
	assert.Equal(t, "Lower Test City", updated.LocationName)
	assert.Equal(t, "Flood in Test City.", updated.Description)
	require.Len(t, updated.AuditTrail, 2)
	assert.Equal(t, "update", updated.AuditTrail[1].Action)
	assert.Equal(t, "reliefAdmin", updated.AuditTrail[1].UserID)
	assert.Equal(t, 1, h.resolver.calls, "update does not re-resolve")
}

func TestUpdateDisaster_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPut, "/disasters/missing", "netrunnerX", map[string]any{"title": "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Disaster not found", decodeError(t, rec))
}

func TestDeleteDisaster(t *testing.T) {
	h := newHarness(t, nil)
	created := h.do(t, http.MethodPost, "/disasters", "netrunnerX", map[string]any{
		"title": "Flood", "description": "Flood in Test City.",
	})
	var d domain.Disaster
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &d))

	rec := h.do(t, http.MethodDelete, "/disasters/"+d.ID, "netrunnerX", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Disaster deleted successfully"}`, rec.Body.String())
	require.Len(t, h.broadcaster.events, 2)
	assert.Equal(t, "delete", h.broadcaster.events[1].Type)
}

func TestDeleteDisaster_NotFoundDoesNotBroadcast(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodDelete, "/disasters/missing", "netrunnerX", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Disaster not found", decodeError(t, rec))
	assert.Empty(t, h.broadcaster.events)
}

// --- feeds ---

func TestSocialMedia_SetsDataSource(t *testing.T) {
	h := newHarness(t, nil)
	h.feeds.source = domain.SourceFixture
	h.feeds.posts = []domain.SocialPost{{Post: "Water level rising by hour", User: "citizenB", Priority: "high"}}

	rec := h.do(t, http.MethodGet, "/disasters/d1/social-media", "citizen1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fixture", rec.Header().Get(httpadapter.HeaderDataSource))
	var posts []domain.SocialPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	assert.Equal(t, "citizenB", posts[0].User)
}

func TestSocialMedia_FailureIs500(t *testing.T) {
	h := newHarness(t, nil)
	h.feeds.err = errors.New("boom")

	rec := h.do(t, http.MethodGet, "/disasters/d1/social-media", "citizen1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", decodeError(t, rec))
}

func TestResources(t *testing.T) {
	h := newHarness(t, nil)
	h.feeds.resources = []domain.Resource{{ID: "r1", Name: "Shelter", Distance: "1.9km"}}

	rec := h.do(t, http.MethodGet, "/disasters/d1/resources?lat=40.7128&lng=-74.0060", "citizen1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "live", rec.Header().Get(httpadapter.HeaderDataSource))
	assert.InDelta(t, 40.7128, h.feeds.gotLat, 1e-9)
	assert.InDelta(t, -74.0060, h.feeds.gotLng, 1e-9)
}

func TestResources_InvalidCoordinates(t *testing.T) {
	h := newHarness(t, nil)

	for _, q := range []string{"", "?lat=40.7", "?lat=abc&lng=-74", "?lat=NaN&lng=-74", "?lat=40.7&lng="} {
		rec := h.do(t, http.MethodGet, "/disasters/d1/resources"+q, "citizen1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "Valid lat and lng parameters are required", decodeError(t, rec), q)
	}
	assert.Zero(t, h.feeds.calls)
}

func TestResources_StoreFailureIs500(t *testing.T) {
	h := newHarness(t, nil)
	h.feeds.err = &domain.PersistenceError{Op: "find resources", Err: errors.New("connection reset")}

	rec := h.do(t, http.MethodGet, "/disasters/d1/resources?lat=1&lng=2", "citizen1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOfficialUpdates(t *testing.T) {
	h := newHarness(t, nil)
	h.feeds.source = domain.SourceCache
	h.feeds.updates = []domain.OfficialUpdate{{Source: "FEMA", Title: "Shelters open across the region", URL: "#"}}

	rec := h.do(t, http.MethodGet, "/disasters/d1/official-updates", "citizen1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cache", rec.Header().Get(httpadapter.HeaderDataSource))
}

func TestVerifyImage(t *testing.T) {
	h := newHarness(t, nil)
	h.feeds.verdict = domain.Verification{Status: "verified", Confidence: "high", ImageURL: "https://example.com/a.jpg"}

	rec := h.do(t, http.MethodPost, "/disasters/d1/verify-image", "citizen1", map[string]string{
		"image_url": "https://example.com/a.jpg",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/a.jpg", h.feeds.gotImage)
	var v domain.Verification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "high", v.Confidence)
}

func TestVerifyImage_MissingURL(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/disasters/d1/verify-image", "citizen1", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "image_url is required", decodeError(t, rec))
}

// --- geocode ---

func TestGeocode(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/geocode", "citizen1", map[string]string{"description": "Flood in Test City."})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"location_name":"Test City","lat":41.5,"lng":-73.25,"original_description":"Flood in Test City."}`,
		rec.Body.String())
}

func TestGeocode_MissingDescription(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/geocode", "citizen1", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "description is required", decodeError(t, rec))
	assert.Zero(t, h.resolver.calls)
}

func TestGeocode_TotalFailureIs500(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.err = &domain.ResolutionError{Msg: "All geocoding attempts failed"}

	rec := h.do(t, http.MethodPost, "/geocode", "citizen1", map[string]string{"description": "Somewhere"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "All geocoding attempts failed", decodeError(t, rec))
}
