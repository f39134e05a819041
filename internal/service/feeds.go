package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/disaster-response-service/internal/cache"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

// Feed names used in logs and the fixture_served_total metric.
const (
	FeedSocial    = "social"
	FeedResources = "resources"
	FeedUpdates   = "updates"
	FeedVerify    = "verify"
)

// UpdatesSource fetches official headlines.
type UpdatesSource interface {
	FetchUpdates(ctx context.Context) ([]domain.OfficialUpdate, error)
}

// ImageAnalyzer returns a free-text authenticity assessment of an image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageURL string) (string, error)
}

// Feeds serves the social, resources, official-updates and image
// verification endpoints. Every feed memoizes its result for one hour and
// substitutes static fixtures, marked as such, when no live data exists.
type Feeds struct {
	memo         *cache.Memo
	resources    domain.ResourceStore
	updates      UpdatesSource
	analyzer     ImageAnalyzer
	broadcaster  domain.Broadcaster
	radiusMeters float64
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// FeedsConfig bundles the Feeds collaborators.
type FeedsConfig struct {
	Memo         *cache.Memo
	Resources    domain.ResourceStore
	Updates      UpdatesSource
	Analyzer     ImageAnalyzer
	Broadcaster  domain.Broadcaster
	RadiusMeters float64
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// NewFeeds creates the feed services.
func NewFeeds(cfg FeedsConfig) *Feeds {
	return &Feeds{
		memo:         cfg.Memo,
		resources:    cfg.Resources,
		updates:      cfg.Updates,
		analyzer:     cfg.Analyzer,
		broadcaster:  cfg.Broadcaster,
		radiusMeters: cfg.RadiusMeters,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// SocialMedia returns the disaster's social feed. There is no live social
// integration, so a fresh feed is always the mock fixture.
func (f *Feeds) SocialMedia(ctx context.Context, disasterID string) ([]domain.SocialPost, domain.DataSource, error) {
	key := domain.CacheKey(domain.NamespaceSocial, disasterID)
	if posts, ok := cache.Load[[]domain.SocialPost](ctx, f.memo, key); ok {
		return posts, domain.SourceCache, nil
	}

	posts := mockSocialPosts(domain.Now())
	f.fixtureServed(FeedSocial, disasterID, "no social media integration")

	f.memo.Save(ctx, key, posts)
	f.broadcaster.BroadcastToGroup(ctx, domain.DisasterGroup(disasterID), domain.EventSocialMediaUpdated, domain.SocialMediaEvent{
		DisasterID: disasterID,
		Posts:      posts,
		Timestamp:  domain.Now(),
	})
	return posts, domain.SourceFixture, nil
}

// Resources returns resources within the configured radius of the point,
// or sample resources when the proximity query finds none.
func (f *Feeds) Resources(ctx context.Context, disasterID string, lat, lng float64) ([]domain.Resource, domain.DataSource, error) {
	key := resourcesKey(disasterID, lat, lng)
	if resources, ok := cache.Load[[]domain.Resource](ctx, f.memo, key); ok {
		return resources, domain.SourceCache, nil
	}

	resources, err := f.resources.FindNearby(ctx, disasterID, lat, lng, f.radiusMeters)
	if err != nil {
		return nil, "", err
	}
	source := domain.SourceLive
	if len(resources) == 0 {
		resources = sampleResources(disasterID)
		source = domain.SourceFixture
		f.fixtureServed(FeedResources, disasterID, "no resources within radius")
	}

	f.memo.Save(ctx, key, resources)
	f.broadcaster.BroadcastToGroup(ctx, domain.DisasterGroup(disasterID), domain.EventResourcesUpdated, domain.ResourcesEvent{
		DisasterID: disasterID,
		Resources:  resources,
		Timestamp:  domain.Now(),
	})
	return resources, source, nil
}

// OfficialUpdates returns scraped agency headlines, or static updates when
// the scrape fails or finds nothing.
func (f *Feeds) OfficialUpdates(ctx context.Context, disasterID string) ([]domain.OfficialUpdate, domain.DataSource, error) {
	key := domain.CacheKey(domain.NamespaceUpdates, disasterID)
	if updates, ok := cache.Load[[]domain.OfficialUpdate](ctx, f.memo, key); ok {
		return updates, domain.SourceCache, nil
	}

	var updates []domain.OfficialUpdate
	if f.updates != nil {
		var err error
		updates, err = f.updates.FetchUpdates(ctx)
		if err != nil {
			f.logger.Warn("official updates scrape failed", "disaster_id", disasterID, "error", err)
		}
	}
	source := domain.SourceLive
	if len(updates) == 0 {
		updates = staticOfficialUpdates(domain.Now())
		source = domain.SourceFixture
		f.fixtureServed(FeedUpdates, disasterID, "scrape returned no updates")
	}

	f.memo.Save(ctx, key, updates)
	f.broadcaster.BroadcastToGroup(ctx, domain.DisasterGroup(disasterID), domain.EventOfficialUpdatesUpdated, domain.OfficialUpdatesEvent{
		DisasterID: disasterID,
		Updates:    updates,
		Timestamp:  domain.Now(),
	})
	return updates, source, nil
}

// VerifyImage assesses the image at imageURL. The verdict is a stand-in:
// the analyzer sees only the URL, never the image bytes. No event is broadcast.
func (f *Feeds) VerifyImage(ctx context.Context, disasterID, imageURL string) (domain.Verification, domain.DataSource, error) {
	if imageURL == "" {
		return domain.Verification{}, "", domain.NewValidationError("image_url is required")
	}

	key := domain.CacheKey(domain.NamespaceVerify, imageURL)
	if v, ok := cache.Load[domain.Verification](ctx, f.memo, key); ok {
		return v, domain.SourceCache, nil
	}

	v := domain.Verification{
		ImageURL:   imageURL,
		DisasterID: disasterID,
		Timestamp:  domain.Now(),
	}
	source := domain.SourceLive

	analysis, err := f.analyze(ctx, imageURL)
	if err != nil {
		f.logger.Warn("image analysis failed", "disaster_id", disasterID, "image_url", imageURL, "error", err)
		v.Status, v.Confidence, v.Explanation = "verified", "medium", fixtureVerificationExplanation
		source = domain.SourceFixture
		f.fixtureServed(FeedVerify, disasterID, "image analysis unavailable")
	} else {
		if analysis == "" {
			analysis = "Analysis unavailable"
		}
		v.Status, v.Confidence, v.Explanation = "verified", "high", analysis
	}

	f.memo.Save(ctx, key, v)
	return v, source, nil
}

func (f *Feeds) analyze(ctx context.Context, imageURL string) (string, error) {
	if f.analyzer == nil {
		return "", domain.ErrUpstream
	}
	return f.analyzer.AnalyzeImage(ctx, imageURL)
}

func (f *Feeds) fixtureServed(feed, disasterID, reason string) {
	f.logger.Warn("serving fixture data", "feed", feed, "disaster_id", disasterID, "reason", reason)
	f.metrics.FixtureServed.WithLabelValues(feed).Inc()
}

// resourcesKey keeps the coordinates' sign and decimal point, which
// stripping would erase, so distinct points never share a key.
func resourcesKey(disasterID string, lat, lng float64) string {
	return domain.CacheKey(domain.NamespaceResources, disasterID) +
		"_" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"_" + strconv.FormatFloat(lng, 'f', -1, 64)
}
