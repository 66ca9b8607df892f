// Package messaging provides pluggable chat channels and routing of inbound
// replies to per-participant response hooks.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// Constants for channel configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for receipt and response channels
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
	// MinPhoneDigits is the minimum number of digits in a canonical phone number
	MinPhoneDigits = 6
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

var phoneNumberRegex = regexp.MustCompile(`\D`)

// Service defines a pluggable message delivery abstraction.
// It supports sending messages, and provides channels for receipt and response events.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient identifier.
	// Each service implements its own recipient rules.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing (e.g., polling for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Receipts returns a channel of receipt events (sent, delivered, read).
	Receipts() <-chan models.Receipt

	// Responses returns a channel of incoming participant responses.
	Responses() <-chan models.Response
}

// canonicalizePhone strips every non-digit and requires at least MinPhoneDigits digits.
func canonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < MinPhoneDigits {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum %d digits required)", canonical, MinPhoneDigits)
	}
	return canonical, nil
}

// channels holds the receipt and response channels shared by every service.
// Emits hold the read lock so stop never closes a channel mid-send.
type channels struct {
	mu        sync.RWMutex
	receipts  chan models.Receipt
	responses chan models.Response
	stopped   bool
}

func newChannels() *channels {
	return &channels{
		receipts:  make(chan models.Receipt, DefaultChannelBufferSize),
		responses: make(chan models.Response, DefaultChannelBufferSize),
	}
}

func (c *channels) isStopped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopped
}

// stop closes both channels once. It reports whether this call stopped them.
func (c *channels) stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.stopped = true
	close(c.receipts)
	close(c.responses)
	return true
}

func (c *channels) emitReceipt(receipt models.Receipt) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return false
	}
	select {
	case c.receipts <- receipt:
		return true
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("messaging: receipts channel blocked, dropping receipt", "to", receipt.To, "timeout", DefaultChannelTimeout)
		return false
	}
}

func (c *channels) emitResponse(response models.Response) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		slog.Warn("messaging: dropping inbound response (service stopped)", "from", response.From)
		return false
	}
	select {
	case c.responses <- response:
		return true
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("messaging: responses channel blocked, dropping message", "from", response.From, "timeout", DefaultChannelTimeout)
		return false
	}
}
