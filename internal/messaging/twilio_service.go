package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/twiliowhatsapp"
)

// TwilioService implements the Service interface using the Twilio API.
// Inbound messages arrive through WebhookHandler.
type TwilioService struct {
	client    twiliowhatsapp.TwilioWhatsAppSender
	validator *twiliowhatsapp.SignatureValidator
	*channels
}

// NewTwilioService creates a new TwilioService. validator may be nil, in
// which case webhook signatures are not checked.
func NewTwilioService(client twiliowhatsapp.TwilioWhatsAppSender, validator *twiliowhatsapp.SignatureValidator) *TwilioService {
	return &TwilioService{
		client:    client,
		validator: validator,
		channels:  newChannels(),
	}
}

// ValidateAndCanonicalizeRecipient accepts "whatsapp:+1234567890" as well as bare numbers.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(strings.TrimPrefix(recipient, "whatsapp:"))
}

// Start is a no-op; Twilio pushes inbound messages to the webhook.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes channels and stops the service.
func (s *TwilioService) Stop() error {
	s.stop()
	return nil
}

// SendMessage sends a message via Twilio and emits a receipt.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService.SendMessage: invalid recipient", "error", err, "to", to)
		return err
	}
	if err := s.client.SendMessage(ctx, canonicalTo, body); err != nil {
		return err
	}
	s.emitReceipt(models.Receipt{To: canonicalTo, Status: models.MessageStatusSent, Time: time.Now().Unix()})
	return nil
}

// Receipts returns the channel for sent message receipts.
func (s *TwilioService) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Responses returns the channel for inbound webhook messages.
func (s *TwilioService) Responses() <-chan models.Response {
	return s.responses
}

// WebhookHandler handles inbound Twilio webhook requests and emits them on Responses.
func (s *TwilioService) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("TwilioService.WebhookHandler: failed to parse form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if s.validator != nil && !s.validator.Valid(r) {
		slog.Warn("TwilioService.WebhookHandler: invalid signature")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" || body == "" {
		slog.Warn("TwilioService.WebhookHandler: missing fields", "from_set", from != "", "body_set", body != "")
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	canonicalFrom, err := s.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid sender: %v", err), http.StatusBadRequest)
		return
	}

	s.emitResponse(models.Response{From: canonicalFrom, Body: body, Time: time.Now().Unix()})
	slog.Info("TwilioService.WebhookHandler: inbound message", "from", canonicalFrom)

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<Response></Response>")
}
