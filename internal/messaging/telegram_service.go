package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/telegram"
)

// TelegramService implements Service on top of a Telegram bot.
type TelegramService struct {
	client telegram.TelegramSender
	live   *telegram.Client
	*channels
}

// NewTelegramService creates a TelegramService. Inbound messages are only
// received when client is a *telegram.Client.
func NewTelegramService(client telegram.TelegramSender) *TelegramService {
	s := &TelegramService{client: client, channels: newChannels()}
	if live, ok := client.(*telegram.Client); ok {
		s.live = live
	}
	return s
}

// ValidateAndCanonicalizeRecipient requires a numeric chat id. Group chats have negative ids.
func (s *TelegramService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	id, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil || id == 0 {
		return "", fmt.Errorf("invalid telegram chat id %q", recipient)
	}
	return strconv.FormatInt(id, 10), nil
}

// Start begins long polling in the background until ctx is cancelled.
func (s *TelegramService) Start(ctx context.Context) error {
	if s.live == nil {
		return nil
	}
	s.live.OnMessage(s.handleIncomingMessage)
	go s.live.Start(ctx)
	slog.Info("TelegramService started polling")
	return nil
}

// Stop closes the event channels.
func (s *TelegramService) Stop() error {
	s.stop()
	return nil
}

// SendMessage sends a message and emits a sent receipt.
func (s *TelegramService) SendMessage(ctx context.Context, to string, body string) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	chatID, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	if err := s.client.SendMessage(ctx, chatID, body); err != nil {
		slog.Error("TelegramService.SendMessage: send failed", "error", err, "to", chatID)
		return err
	}
	s.emitReceipt(models.Receipt{To: chatID, Status: models.MessageStatusSent, Time: time.Now().Unix()})
	return nil
}

// Receipts returns a channel of receipt events.
func (s *TelegramService) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Responses returns a channel of incoming messages.
func (s *TelegramService) Responses() <-chan models.Response {
	return s.responses
}

func (s *TelegramService) handleIncomingMessage(ctx context.Context, chatID string, text string, unixTime int64) {
	if s.emitResponse(models.Response{From: chatID, Body: text, Time: unixTime}) {
		slog.Debug("TelegramService incoming message forwarded", "from", chatID)
	}
}
