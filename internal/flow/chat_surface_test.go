package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFormatPanelSingleChoice(t *testing.T) {
	q := scenarioQuestions()[1]
	msg := FormatPanel(Panel{Step: 1, Total: 4, Question: q, Selected: 1}, 50, Controls{BackEnabled: true, ForwardEnabled: true})

	for _, want := range []string{"[▓▓▓▓▓░░░░░] 50%", "Gender?", "\n1. Male", "\n2. ✅ Female", "\n3. Non-binary", `"next" to continue`, `"back" to go back`} {
		if !strings.Contains(msg, want) {
			t.Errorf("panel missing %q:\n%s", want, msg)
		}
	}
	if strings.Count(msg, "✅") != 1 {
		t.Errorf("expected exactly one marked option:\n%s", msg)
	}
}

func TestFormatPanelTextAndCompletion(t *testing.T) {
	qs := scenarioQuestions()

	msg := FormatPanel(Panel{Question: qs[0], Selected: -1}, 25, Controls{})
	if !strings.Contains(msg, "(Your name)") || strings.Contains(msg, "go back") {
		t.Errorf("unexpected text panel:\n%s", msg)
	}
	msg = FormatPanel(Panel{Question: qs[0], TextValue: "Alex", Selected: -1}, 25, Controls{ForwardEnabled: true})
	if !strings.Contains(msg, "Current answer: Alex") {
		t.Errorf("expected current answer:\n%s", msg)
	}

	msg = FormatPanel(Panel{Step: 3, Question: qs[3], Selected: -1}, 100, Controls{BackEnabled: true, ForwardEnabled: true, Completion: true})
	if !strings.Contains(msg, `Send "done" to finish.`) || strings.Contains(msg, "to continue") {
		t.Errorf("unexpected completion panel:\n%s", msg)
	}
}

func TestFormatOutcome(t *testing.T) {
	if got := FormatOutcome(Outcome{Message: "Welcome, Alex", Redirect: "/dashboard"}); got != "Welcome, Alex\n/dashboard" {
		t.Errorf("FormatOutcome = %q", got)
	}
	if got := FormatOutcome(Outcome{}); !strings.Contains(got, "All Done") {
		t.Errorf("expected default outcome message, got %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	tests := map[int]string{
		-5:  "[░░░░░░░░░░] 0%",
		0:   "[░░░░░░░░░░] 0%",
		25:  "[▓▓░░░░░░░░] 25%",
		100: "[▓▓▓▓▓▓▓▓▓▓] 100%",
		150: "[▓▓▓▓▓▓▓▓▓▓] 100%",
	}
	for in, want := range tests {
		if got := ProgressBar(in); got != want {
			t.Errorf("ProgressBar(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestChatSurfaceFlush(t *testing.T) {
	sender := &recordingSender{}
	s := NewChatSurface(sender, "254700000001")

	if err := s.Flush(context.Background()); err != nil || sender.count() != 0 {
		t.Fatalf("flush with nothing pending sent %d messages, err=%v", sender.count(), err)
	}

	c, err := NewController(scenarioQuestions(), s, &recordingCompleter{})
	if err != nil {
		t.Fatal(err)
	}
	c.Render()
	if !s.Pending() {
		t.Fatal("expected pending output after render")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sender.count() != 1 || sender.last().to != "254700000001" || !strings.Contains(sender.last().body, "Name?") {
		t.Fatalf("unexpected sent messages: %+v", sender.sent)
	}
	if s.Pending() {
		t.Error("flush should clear pending output")
	}

	sender.err = errors.New("offline")
	c.RecordTextAnswer("name", "Alex")
	if err := s.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	if !s.Pending() {
		t.Error("failed flush should keep output pending")
	}
}
