// Package gemini calls the Google Generative Language API for location
// extraction and image assessment.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	extractPrompt = `Extract the location name from this disaster description. Return ONLY the location name: "%s"`

	verifyPrompt = "Analyze this disaster image for authenticity. Check for signs of manipulation, " +
		"verify if it shows real disaster context, and assess if it's appropriate for emergency response. " +
		"Respond with: 1) Authenticity status (verified/suspicious/fake), 2) Confidence level (high/medium/low), " +
		"3) Brief explanation. Image: %s"
)

// Client implements domain.LocationExtractor and the image analysis call.
type Client struct {
	apiKey      string
	model       string
	visionModel string
	httpClient  *http.Client
	baseURL     string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewClient creates a Gemini client. Calls fail immediately when apiKey is empty.
func NewClient(apiKey, model, visionModel string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:      apiKey,
		model:       model,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     defaultBaseURL,
		logger:      logger,
		metrics:     metrics,
	}
}

// ExtractLocation asks the model for the place named in description.
func (c *Client) ExtractLocation(ctx context.Context, description string) (string, error) {
	text, err := c.generate(ctx, c.model, fmt.Sprintf(extractPrompt, description))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AnalyzeImage asks the vision model to assess the image at imageURL and
// returns its free-text analysis. The image itself is not fetched.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	return c.generate(ctx, c.visionModel, fmt.Sprintf(verifyPrompt, imageURL))
}

func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: api key not set: %w", domain.ErrUpstream)
	}

	start := time.Now()
	defer func() {
		c.metrics.UpstreamDuration.WithLabelValues("gemini").Observe(time.Since(start).Seconds())
	}()

	text, err := c.doRequest(ctx, model, prompt)
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("gemini").Inc()
		c.logger.Debug("gemini request failed", "model", model, "error", err)
		return "", err
	}
	return text, nil
}

func (c *Client) doRequest(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?%s",
		c.baseURL, url.PathEscape(model), url.Values{"key": {c.apiKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini API error: status %d: %s: %w", resp.StatusCode, msg, domain.ErrUpstream)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w: %w", domain.ErrUpstream, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty candidates: %w", domain.ErrNoResults)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// Generative Language API wire types.

type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
