package mood

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// Client defaults.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = 2 * time.Second
	analyzePath       = "/analyze-mood"
)

// Analyzer scores a mood entry.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (models.MoodAnalysis, error)
}

// Opts holds configuration options for the analysis client.
type Opts struct {
	HTTPClient *http.Client
	RetryDelay time.Duration
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.HTTPClient = c
	}
}

// WithRetryDelay sets the wait before retrying a 503 response.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Opts) {
		o.RetryDelay = d
	}
}

// Client calls the remote mood-analysis endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

// NewClient creates a client for the analysis service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("mood analysis base URL is required")
	}
	cfg := Opts{RetryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: cfg.HTTPClient,
		retryDelay: cfg.RetryDelay,
	}, nil
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze validates text and sends it for analysis. A 503 from the service
// is retried once after the retry delay.
func (c *Client) Analyze(ctx context.Context, text string) (models.MoodAnalysis, error) {
	text, err := ValidateEntry(text)
	if err != nil {
		return models.MoodAnalysis{}, err
	}
	data, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return models.MoodAnalysis{}, fmt.Errorf("marshal analyze request: %w", err)
	}

	resp, err := c.post(ctx, data)
	if err != nil {
		return models.MoodAnalysis{}, err
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		resp.Body.Close()
		slog.Warn("Client.Analyze: service unavailable, retrying", "delay", c.retryDelay)
		select {
		case <-ctx.Done():
			return models.MoodAnalysis{}, ctx.Err()
		case <-time.After(c.retryDelay):
		}
		if resp, err = c.post(ctx, data); err != nil {
			return models.MoodAnalysis{}, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.MoodAnalysis{}, fmt.Errorf("read analyze response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Client.Analyze: analysis failed", "status", resp.StatusCode)
		return models.MoodAnalysis{}, fmt.Errorf("analyze mood: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result models.MoodAnalysis
	if err := json.Unmarshal(body, &result); err != nil {
		return models.MoodAnalysis{}, fmt.Errorf("decode analyze response: %w", err)
	}
	slog.Debug("Client.Analyze: analysis received", "score", result.MoodScore, "category", result.MoodCategory)
	return result, nil
}

func (c *Client) post(ctx context.Context, data []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze mood: %w", err)
	}
	return resp, nil
}
