package flow

import (
	"context"
	"errors"
	"sync"
)

// recordingSurface remembers the latest state pushed by a controller.
type recordingSurface struct {
	panel    Panel
	progress int
	selected int
	controls Controls
	outcome  *Outcome
	renders  int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{selected: -1}
}

func (s *recordingSurface) RenderPanel(p Panel) {
	s.panel = p
	s.selected = p.Selected
	s.renders++
}
func (s *recordingSurface) SetProgress(percent int) { s.progress = percent }
func (s *recordingSurface) MarkSelected(index int)  { s.selected = index }
func (s *recordingSurface) SetControls(c Controls)  { s.controls = c }
func (s *recordingSurface) Finish(o Outcome)        { s.outcome = &o }

// recordingCompleter captures the answers handed over on completion.
type recordingCompleter struct {
	calls   int
	answers Answers
	err     error
}

func (c *recordingCompleter) Complete(ctx context.Context, answers Answers) (Outcome, error) {
	c.calls++
	if c.err != nil {
		return Outcome{}, c.err
	}
	c.answers = answers
	return Outcome{Reference: "profile-1", Redirect: "/dashboard"}, nil
}

var errCompleter = errors.New("backend unavailable")

// sentMessage is a chat message captured by recordingSender.
type sentMessage struct {
	to   string
	body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) SendMessage(ctx context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{to: to, body: body})
	return nil
}

func (s *recordingSender) last() sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentMessage{}
	}
	return s.sent[len(s.sent)-1]
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// scenarioQuestions is the four-step set used across tests.
func scenarioQuestions() []Question {
	return []Question{
		{Text: "Name?", Type: QuestionTypeText, Key: "name", Placeholder: "Your name"},
		{Text: "Gender?", Type: QuestionTypeSingleChoice, Key: "gender", Options: []Option{
			{Label: "Male", Value: "male"}, {Label: "Female", Value: "female"}, {Label: "Non-binary", Value: "nonbinary"},
		}},
		{Text: "Age?", Type: QuestionTypeSingleChoice, Key: "age", Options: []Option{
			{Label: "18-24", Value: "18-24"}, {Label: "25-34", Value: "25-34"},
		}},
		{Text: "Done!", Type: QuestionTypeCompletion},
	}
}
