package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

// Default replies sent by ResponseHandler.
const (
	DefaultReplyMessage = "📝 Your message has been recorded. Thank you for your response!"
	HookErrorMessage    = "⚠️ We encountered an issue processing your response. Please try again or contact support."
)

// ResponseAction defines a hook function that processes a participant's response.
// It receives the participant's canonical id, response text, and timestamp.
// It should return true if the response was handled, false otherwise.
type ResponseAction func(ctx context.Context, from, responseText string, timestamp int64) (handled bool, err error)

// ResponseHandler routes incoming responses to per-recipient action hooks.
type ResponseHandler struct {
	hooks map[string]ResponseAction
	mu    sync.RWMutex

	msgService Service
	st         store.Store // optional; records inbound responses and receipts

	defaultMessage string
	// enroll runs for senders without a hook before the default reply is sent.
	enroll ResponseAction
}

// NewResponseHandler creates a ResponseHandler. st may be nil.
func NewResponseHandler(msgService Service, st store.Store) *ResponseHandler {
	return &ResponseHandler{
		hooks:          make(map[string]ResponseAction),
		msgService:     msgService,
		st:             st,
		defaultMessage: DefaultReplyMessage,
	}
}

// RegisterHook registers a response action for a specific participant.
func (rh *ResponseHandler) RegisterHook(recipient string, action ResponseAction) error {
	canonicalRecipient, err := rh.msgService.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		slog.Error("ResponseHandler.RegisterHook: validation failed", "error", err, "recipient", recipient)
		return fmt.Errorf("invalid recipient: %w", err)
	}

	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.hooks[canonicalRecipient] = action
	slog.Debug("ResponseHandler.RegisterHook: hook registered", "recipient", canonicalRecipient)
	return nil
}

// UnregisterHook removes the response action for a specific participant.
func (rh *ResponseHandler) UnregisterHook(recipient string) error {
	canonicalRecipient, err := rh.msgService.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	rh.mu.Lock()
	defer rh.mu.Unlock()
	delete(rh.hooks, canonicalRecipient)
	slog.Debug("ResponseHandler.UnregisterHook: hook unregistered", "recipient", canonicalRecipient)
	return nil
}

// IsHookRegistered checks if a hook is registered for the given recipient.
func (rh *ResponseHandler) IsHookRegistered(recipient string) bool {
	canonicalRecipient, err := rh.msgService.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		return false
	}
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	_, exists := rh.hooks[canonicalRecipient]
	return exists
}

// SetEnrollAction sets the action run for senders that have no hook yet.
// It typically registers a hook and starts a conversation.
func (rh *ResponseHandler) SetEnrollAction(action ResponseAction) {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.enroll = action
}

// ProcessResponse records an incoming response and runs the sender's hook,
// the enroll action, or the default reply, in that order.
func (rh *ResponseHandler) ProcessResponse(ctx context.Context, response models.Response) error {
	canonicalFrom, err := rh.msgService.ValidateAndCanonicalizeRecipient(response.From)
	if err != nil {
		slog.Error("ResponseHandler.ProcessResponse: validation failed", "error", err, "from", response.From)
		return fmt.Errorf("invalid sender: %w", err)
	}
	response.From = canonicalFrom

	if rh.st != nil {
		if err := rh.st.AddResponse(response); err != nil {
			slog.Error("ResponseHandler.ProcessResponse: failed to store response", "error", err, "from", canonicalFrom)
		}
	}

	rh.mu.RLock()
	action, hasHook := rh.hooks[canonicalFrom]
	enroll := rh.enroll
	defaultMessage := rh.defaultMessage
	rh.mu.RUnlock()

	if !hasHook && enroll != nil {
		action, hasHook = enroll, true
	}

	if hasHook {
		handled, err := action(ctx, canonicalFrom, response.Body, response.Time)
		if err != nil {
			slog.Error("ResponseHandler.ProcessResponse: hook execution failed", "error", err, "from", canonicalFrom)
			if sendErr := rh.msgService.SendMessage(ctx, canonicalFrom, HookErrorMessage); sendErr != nil {
				slog.Error("ResponseHandler.ProcessResponse: failed to send error message", "error", sendErr, "from", canonicalFrom)
			}
			return fmt.Errorf("hook execution failed: %w", err)
		}
		if handled {
			slog.Debug("ResponseHandler.ProcessResponse: handled by hook", "from", canonicalFrom)
			return nil
		}
	}

	if err := rh.msgService.SendMessage(ctx, canonicalFrom, defaultMessage); err != nil {
		slog.Error("ResponseHandler.ProcessResponse: failed to send default response", "error", err, "from", canonicalFrom)
		return fmt.Errorf("failed to send default response: %w", err)
	}
	slog.Info("ResponseHandler sent default response", "from", canonicalFrom)
	return nil
}

// SetDefaultMessage sets the default message sent when no hook handles a response.
func (rh *ResponseHandler) SetDefaultMessage(message string) {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.defaultMessage = message
}

// GetDefaultMessage returns the current default message.
func (rh *ResponseHandler) GetDefaultMessage() string {
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	return rh.defaultMessage
}

// GetHookCount returns the number of currently registered hooks.
func (rh *ResponseHandler) GetHookCount() int {
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	return len(rh.hooks)
}

// Start processes responses and receipts from the messaging service until
// ctx is cancelled or the service's channels close.
func (rh *ResponseHandler) Start(ctx context.Context) {
	slog.Info("ResponseHandler starting response processing")

	go func() {
		defer slog.Info("ResponseHandler stopped response processing")
		responses := rh.msgService.Responses()
		receipts := rh.msgService.Receipts()
		for responses != nil || receipts != nil {
			select {
			case response, ok := <-responses:
				if !ok {
					responses = nil
					continue
				}
				if err := rh.ProcessResponse(ctx, response); err != nil {
					slog.Error("ResponseHandler failed to process response", "error", err, "from", response.From)
				}
			case receipt, ok := <-receipts:
				if !ok {
					receipts = nil
					continue
				}
				if rh.st != nil {
					if err := rh.st.AddReceipt(receipt); err != nil {
						slog.Error("ResponseHandler failed to store receipt", "error", err, "to", receipt.To)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
