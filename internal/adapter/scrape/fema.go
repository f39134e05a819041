// Package scrape pulls official disaster headlines from relief agency
// websites.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

const (
	headlineSelector = ".featured-news__title, .news-item__title, h2, h3"
	minTitleLength   = 10
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Scraper reads headlines from a single agency page.
type Scraper struct {
	source     string
	pageURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFEMA creates a scraper for the FEMA homepage (or a mirror at pageURL).
func NewFEMA(pageURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Scraper {
	return &Scraper{
		source:     "FEMA",
		pageURL:    pageURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchUpdates returns every headline longer than ten characters. An empty
// slice with a nil error means the page had no usable headlines.
func (s *Scraper) FetchUpdates(ctx context.Context) ([]domain.OfficialUpdate, error) {
	start := time.Now()
	updates, err := s.fetch(ctx)
	s.metrics.UpstreamDuration.WithLabelValues("scrape").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.UpstreamErrors.WithLabelValues("scrape").Inc()
	}
	return updates, err
}

func (s *Scraper) fetch(ctx context.Context) ([]domain.OfficialUpdate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", s.pageURL, domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d: %w", s.pageURL, resp.StatusCode, domain.ErrUpstream)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", s.pageURL, domain.ErrUpstream, err)
	}

	now := domain.Now()
	var updates []domain.OfficialUpdate
	doc.Find(headlineSelector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		if len(title) <= minTitleLength {
			return
		}
		href, ok := sel.Find("a").Attr("href")
		if !ok || href == "" {
			href = "#"
		}
		updates = append(updates, domain.OfficialUpdate{
			Source:    s.source,
			Title:     title,
			Timestamp: now,
			URL:       href,
		})
	})

	s.logger.Debug("scraped official updates", "source", s.source, "count", len(updates))
	return updates, nil
}
