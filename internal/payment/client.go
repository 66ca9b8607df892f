package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// DefaultTimeout bounds a subscription request.
const DefaultTimeout = 30 * time.Second

var (
	// ErrMissingEmail is returned when a subscription request has no email.
	ErrMissingEmail = errors.New("email address is required")
	// ErrGateway wraps every failure of the payment backend itself.
	ErrGateway = errors.New("payment gateway error")
)

// Opts holds configuration options for the payment client.
type Opts struct {
	HTTPClient *http.Client
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.HTTPClient = c
	}
}

// Client initialises subscriptions with the payment backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the payment backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("payment base URL is required")
	}
	cfg := Opts{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: cfg.HTTPClient}, nil
}

// CreateSubscription starts a subscription and returns the URL of the
// payment page the user must be sent to.
func (c *Client) CreateSubscription(ctx context.Context, email, plan string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrMissingEmail
	}
	if _, err := LookupPlan(plan); err != nil {
		return "", err
	}

	data, err := json.Marshal(models.SubscriptionRequest{Email: email, Plan: plan})
	if err != nil {
		return "", fmt.Errorf("marshal subscription request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-subscription", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build subscription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Client.CreateSubscription: request failed", "error", err, "plan", plan)
		return "", fmt.Errorf("%w: create subscription: %w", ErrGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read subscription response: %w", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Client.CreateSubscription: payment initialization failed", "status", resp.StatusCode, "plan", plan)
		return "", fmt.Errorf("%w: create subscription: status %d: %s", ErrGateway, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out models.SubscriptionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode subscription response: %w", ErrGateway, err)
	}
	if out.PaymentURL == "" {
		return "", fmt.Errorf("%w: response has no payment_url", ErrGateway)
	}
	slog.Info("Client.CreateSubscription: subscription initialised", "plan", plan)
	return out.PaymentURL, nil
}
