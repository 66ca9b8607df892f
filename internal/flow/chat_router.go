package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/messaging"
)

// ChatRouter runs chat onboarding sessions for every participant of a
// messaging channel, registering a response hook per active session.
type ChatRouter struct {
	mu       sync.Mutex
	sessions map[string]*ChatSession

	questions []Question
	handler   *messaging.ResponseHandler
	sender    Sender
	completer Completer
	states    StateManager
}

// NewChatRouter creates a router. states may be nil.
func NewChatRouter(handler *messaging.ResponseHandler, sender Sender, questions []Question, completer Completer, states StateManager) (*ChatRouter, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return &ChatRouter{
		sessions:  make(map[string]*ChatSession),
		questions: questions,
		handler:   handler,
		sender:    sender,
		completer: completer,
		states:    states,
	}, nil
}

// EnableAutoEnroll starts onboarding for any sender without an active session.
func (r *ChatRouter) EnableAutoEnroll() {
	r.handler.SetEnrollAction(r.Enroll)
}

// Start begins (or resumes) onboarding for a participant and sends the active question.
func (r *ChatRouter) Start(ctx context.Context, participantID string) error {
	sess, _, err := r.open(ctx, participantID)
	if err != nil {
		return err
	}
	if sess.Completed() {
		return fmt.Errorf("participant %s already completed onboarding", participantID)
	}
	if err := r.attach(participantID, sess); err != nil {
		return err
	}
	return sess.Begin(ctx)
}

// Enroll is a messaging.ResponseAction for participants without a hook.
// A participant with saved progress has the message applied to the
// restored flow; a new participant receives the first question. Participants
// who already completed onboarding are left to the default reply.
func (r *ChatRouter) Enroll(ctx context.Context, from, text string, timestamp int64) (bool, error) {
	sess, resumed, err := r.open(ctx, from)
	if err != nil {
		return false, err
	}
	if sess.Completed() {
		return false, nil
	}
	if err := r.attach(from, sess); err != nil {
		return false, err
	}
	slog.Info("ChatRouter.Enroll: participant enrolled", "participantID", from, "resumed", resumed)
	if resumed {
		return true, r.reply(ctx, from, sess, text)
	}
	return true, sess.Begin(ctx)
}

// Session returns the active session for a participant.
func (r *ChatRouter) Session(participantID string) (*ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[participantID]
	return sess, ok
}

func (r *ChatRouter) open(ctx context.Context, participantID string) (*ChatSession, bool, error) {
	r.mu.Lock()
	sess, ok := r.sessions[participantID]
	r.mu.Unlock()
	if ok {
		return sess, true, nil
	}
	sess, err := NewChatSession(r.questions, r.sender, participantID, r.completer, r.states)
	if err != nil {
		return nil, false, err
	}
	resumed, err := sess.Resume(ctx)
	if err != nil {
		return nil, false, err
	}
	return sess, resumed, nil
}

func (r *ChatRouter) attach(participantID string, sess *ChatSession) error {
	hook := func(ctx context.Context, from, text string, timestamp int64) (bool, error) {
		return true, r.reply(ctx, from, sess, text)
	}
	if err := r.handler.RegisterHook(participantID, hook); err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[participantID] = sess
	r.mu.Unlock()
	return nil
}

func (r *ChatRouter) reply(ctx context.Context, participantID string, sess *ChatSession, text string) error {
	if err := sess.HandleReply(ctx, text); err != nil {
		return err
	}
	if sess.Completed() {
		r.mu.Lock()
		delete(r.sessions, participantID)
		r.mu.Unlock()
		if err := r.handler.UnregisterHook(participantID); err != nil {
			slog.Warn("ChatRouter: failed to unregister completed session", "participantID", participantID, "error", err)
		}
		slog.Info("ChatRouter: onboarding completed", "participantID", participantID, "profileID", sess.ProfileID())
	}
	return nil
}
