// Package telegram wraps the go-telegram bot client for the MindVibe Telegram channel.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramSender sends Telegram text messages.
type TelegramSender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// MessageHandler receives inbound text messages. chatID is the decimal chat id.
type MessageHandler func(ctx context.Context, chatID string, text string, unixTime int64)

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token     string
	ServerURL string // Bot API base URL, for tests and self-hosted API servers
	SkipGetMe bool   // skip the getMe call made on construction
}

// Option defines a configuration option for the Telegram client.
type Option func(*Opts)

// WithToken sets the bot token issued by BotFather.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithServerURL points the client at a different Bot API server.
func WithServerURL(url string) Option {
	return func(o *Opts) { o.ServerURL = url }
}

// WithSkipGetMe disables the token check performed by NewClient.
func WithSkipGetMe() Option {
	return func(o *Opts) { o.SkipGetMe = true }
}

// Client wraps a go-telegram bot.
type Client struct {
	bot *bot.Bot

	mu      sync.RWMutex
	handler MessageHandler
}

// NewClient creates a Telegram bot client.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token must be provided")
	}

	c := &Client{}
	botOpts := []bot.Option{bot.WithDefaultHandler(c.dispatch)}
	if cfg.ServerURL != "" {
		botOpts = append(botOpts, bot.WithServerURL(cfg.ServerURL))
	}
	if cfg.SkipGetMe {
		botOpts = append(botOpts, bot.WithSkipGetMe())
	}

	b, err := bot.New(cfg.Token, botOpts...)
	if err != nil {
		slog.Error("telegram.NewClient: failed to create bot", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.bot = b
	slog.Debug("telegram.NewClient: bot created", "server_url_set", cfg.ServerURL != "")
	return c, nil
}

// OnMessage sets the handler for inbound text messages.
func (c *Client) OnMessage(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Start long-polls for updates until ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	c.bot.Start(ctx)
}

func (c *Client) dispatch(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		slog.Debug("telegram.Client.dispatch: no handler registered, dropping update", "update_id", update.ID)
		return
	}
	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	h(ctx, chatID, update.Message.Text, int64(update.Message.Date))
}

// SendMessage sends a text message to a chat id.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}
	if _, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: body}); err != nil {
		slog.Error("telegram.Client.SendMessage: failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("telegram.Client.SendMessage: sent", "to", to, "body_length", len(body))
	return nil
}

// MockClient records messages instead of sending them.
type MockClient struct {
	mu   sync.Mutex
	sent []SentMessage
}

// SentMessage is a message recorded by MockClient.
type SentMessage struct {
	To   string
	Body string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
