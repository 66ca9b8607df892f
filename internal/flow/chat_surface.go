package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Chat formatting constants
const (
	// ChatOptionFormat is the format string for a numbered option line
	ChatOptionFormat = "\n%d. %s"
	// ChatSelectedOptionFormat is the format string for the marked option line
	ChatSelectedOptionFormat = "\n%d. ✅ %s"
	// ChatProgressWidth is the number of segments in the text progress bar
	ChatProgressWidth = 10
)

// Chat commands understood by ChatSession.
const (
	ChatCommandBack = "back"
	ChatCommandNext = "next"
	ChatCommandDone = "done"
)

// Sender delivers a text message to a recipient.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// ChatSurface renders panels as chat messages. Calls made during one
// controller operation are buffered and sent as a single message by Flush.
type ChatSurface struct {
	sender Sender
	to     string

	panel    Panel
	progress int
	controls Controls
	outcome  *Outcome
	dirty    bool
}

// NewChatSurface creates a chat surface delivering to the given recipient.
func NewChatSurface(sender Sender, to string) *ChatSurface {
	return &ChatSurface{sender: sender, to: to, panel: Panel{Selected: -1}}
}

func (s *ChatSurface) RenderPanel(p Panel) {
	s.panel = p
	s.dirty = true
}

func (s *ChatSurface) SetProgress(percent int) {
	s.progress = percent
	s.dirty = true
}

func (s *ChatSurface) MarkSelected(index int) {
	s.panel.Selected = index
	s.dirty = true
}

func (s *ChatSurface) SetControls(c Controls) {
	s.controls = c
	s.dirty = true
}

func (s *ChatSurface) Finish(o Outcome) {
	s.outcome = &o
	s.dirty = true
}

// Pending reports whether there is unsent output.
func (s *ChatSurface) Pending() bool { return s.dirty }

// Flush sends the buffered output as one message.
func (s *ChatSurface) Flush(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	body := s.Message()
	if err := s.sender.SendMessage(ctx, s.to, body); err != nil {
		slog.Error("ChatSurface.Flush: failed to send panel", "error", err, "to", s.to)
		return fmt.Errorf("send onboarding panel: %w", err)
	}
	s.dirty = false
	slog.Debug("ChatSurface.Flush: panel sent", "to", s.to, "step", s.panel.Step, "finished", s.outcome != nil)
	return nil
}

// Message formats the current state as chat text.
func (s *ChatSurface) Message() string {
	if s.outcome != nil {
		return FormatOutcome(*s.outcome)
	}
	return FormatPanel(s.panel, s.progress, s.controls)
}

// FormatPanel renders a question panel as chat text.
func FormatPanel(p Panel, progress int, c Controls) string {
	var sb strings.Builder
	sb.WriteString(ProgressBar(progress))
	sb.WriteString("\n\n")
	if p.Question.Emoji != "" {
		sb.WriteString(p.Question.Emoji)
		sb.WriteString(" ")
	}
	sb.WriteString(p.Question.Text)

	switch p.Question.Type {
	case QuestionTypeSingleChoice:
		for i, opt := range p.Question.Options {
			format := ChatOptionFormat
			if i == p.Selected {
				format = ChatSelectedOptionFormat
			}
			sb.WriteString(fmt.Sprintf(format, i+1, opt.Label))
		}
		sb.WriteString("\n\nReply with the number of your answer.")
	case QuestionTypeText:
		if p.TextValue != "" {
			sb.WriteString(fmt.Sprintf("\n\nCurrent answer: %s", p.TextValue))
		} else if p.Question.Placeholder != "" {
			sb.WriteString(fmt.Sprintf("\n\n(%s)", p.Question.Placeholder))
		}
		sb.WriteString("\n\nReply with your answer.")
	case QuestionTypeCompletion:
		sb.WriteString(fmt.Sprintf("\n\nSend %q to finish.", ChatCommandDone))
	}

	var hints []string
	if c.ForwardEnabled && !c.Completion {
		hints = append(hints, fmt.Sprintf("%q to continue", ChatCommandNext))
	}
	if c.BackEnabled {
		hints = append(hints, fmt.Sprintf("%q to go back", ChatCommandBack))
	}
	if len(hints) > 0 {
		sb.WriteString("\nSend ")
		sb.WriteString(strings.Join(hints, ", "))
		sb.WriteString(".")
	}
	return sb.String()
}

// FormatOutcome renders the completion message.
func FormatOutcome(o Outcome) string {
	msg := o.Message
	if msg == "" {
		msg = "🎉 All Done! You're ready to start your MindVibe journey."
	}
	if o.Redirect != "" {
		msg += "\n" + o.Redirect
	}
	return msg
}

// ProgressBar renders percent as a fixed-width text bar.
func ProgressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * ChatProgressWidth / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("▓", filled), strings.Repeat("░", ChatProgressWidth-filled), percent)
}
