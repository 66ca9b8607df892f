package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Additional replies accepted as navigation commands.
var (
	chatForwardCommands  = []string{ChatCommandNext, "continue"}
	chatCompleteCommands = []string{ChatCommandDone, "finish"}
)

// ChatSession runs one participant's onboarding over a chat channel.
type ChatSession struct {
	mu            sync.Mutex
	participantID string
	controller    *Controller
	surface       *ChatSurface
	states        StateManager
}

// NewChatSession creates a session whose panels are sent to participantID.
// states may be nil, in which case progress is not persisted.
func NewChatSession(questions []Question, sender Sender, participantID string, completer Completer, states StateManager) (*ChatSession, error) {
	surface := NewChatSurface(sender, participantID)
	controller, err := NewController(questions, surface, completer)
	if err != nil {
		return nil, err
	}
	return &ChatSession{
		participantID: participantID,
		controller:    controller,
		surface:       surface,
		states:        states,
	}, nil
}

// Resume restores persisted progress, if any. It reports whether a snapshot was found.
func (s *ChatSession) Resume(ctx context.Context) (bool, error) {
	if s.states == nil {
		return false, nil
	}
	snap, ok, err := LoadSnapshot(ctx, s.states, s.participantID)
	if err != nil || !ok {
		return false, err
	}
	var profileID string
	if snap.Completed {
		if profileID, err = LoadProfileID(ctx, s.states, s.participantID); err != nil {
			return false, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Restore(snap)
	if profileID != "" {
		s.controller.outcome.Reference = profileID
	}
	slog.Debug("ChatSession.Resume: restored", "participantID", s.participantID, "step", snap.Step, "completed", snap.Completed)
	return true, nil
}

// Completed reports whether the participant finished onboarding.
func (s *ChatSession) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Completed()
}

// Snapshot returns the session's current controller state.
func (s *ChatSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Snapshot()
}

// Begin sends the active question.
func (s *ChatSession) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Render()
	return s.settle(ctx)
}

// HandleReply applies one inbound chat message to the flow and sends the
// resulting panel.
func (s *ChatSession) HandleReply(ctx context.Context, reply string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.controller
	if c.Completed() {
		s.surface.Finish(c.Outcome())
		return s.settle(ctx)
	}

	text := strings.TrimSpace(reply)
	command := strings.ToLower(text)
	q := c.Current()

	switch {
	case command == ChatCommandBack:
		if !c.Retreat() {
			c.Render()
		}
	case matches(command, chatForwardCommands):
		if !c.Advance() {
			c.Render()
		}
	case matches(command, chatCompleteCommands) && q.Type == QuestionTypeCompletion:
		if _, err := c.Complete(ctx); err != nil {
			return err
		}
	case q.Type == QuestionTypeSingleChoice:
		idx := ParseOptionReply(q, text)
		if idx < 0 {
			slog.Debug("ChatSession.HandleReply: unrecognised option", "participantID", s.participantID, "reply", text)
			c.Render()
			break
		}
		c.RecordChoice(q.Key, q.Options[idx].Value, idx)
		c.Advance()
	case q.Type == QuestionTypeText && text != "":
		c.RecordTextAnswer(q.Key, text)
		c.Advance()
	default:
		c.Render()
	}
	return s.settle(ctx)
}

// settle sends buffered output and persists the snapshot.
func (s *ChatSession) settle(ctx context.Context) error {
	if err := s.surface.Flush(ctx); err != nil {
		return err
	}
	if s.states == nil {
		return nil
	}
	if ref := s.controller.Outcome().Reference; s.controller.Completed() && ref != "" {
		if err := SaveProfileID(ctx, s.states, s.participantID, ref); err != nil {
			return fmt.Errorf("persist onboarding progress: %w", err)
		}
	}
	if err := SaveSnapshot(ctx, s.states, s.participantID, s.controller.Snapshot()); err != nil {
		return fmt.Errorf("persist onboarding progress: %w", err)
	}
	return nil
}

// ProfileID returns the profile created on completion, or "" before then.
func (s *ChatSession) ProfileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Outcome().Reference
}

// ParseOptionReply maps a chat reply to an option index of q: a 1-based
// number, or an option label or value compared case-insensitively.
// It returns -1 when nothing matches.
func ParseOptionReply(q Question, reply string) int {
	reply = strings.TrimSpace(reply)
	if n, err := strconv.Atoi(reply); err == nil {
		if n >= 1 && n <= len(q.Options) {
			return n - 1
		}
		return -1
	}
	for i, opt := range q.Options {
		if strings.EqualFold(reply, opt.Label) || strings.EqualFold(reply, opt.Value) {
			return i
		}
	}
	return -1
}

func matches(command string, candidates []string) bool {
	for _, c := range candidates {
		if command == c {
			return true
		}
	}
	return false
}
