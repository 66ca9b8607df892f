package flow

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Controller drives one onboarding flow instance.
//
// A Controller is not safe for concurrent use; hosts serving several
// callers must serialise access to it.
type Controller struct {
	questions []Question
	answers   Answers
	step      int
	completed bool
	outcome   Outcome

	surface   Surface
	completer Completer
}

// Snapshot is the persistable state of a Controller.
type Snapshot struct {
	Step      int     `json:"step"`
	Answers   Answers `json:"answers,omitempty"`
	Completed bool    `json:"completed,omitempty"`
}

// NewController creates a controller positioned on the first question.
// It does not render; call Render once the surface is ready.
func NewController(questions []Question, surface Surface, completer Completer) (*Controller, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, fmt.Errorf("flow: surface is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("flow: completer is required")
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &Controller{
		questions: qs,
		answers:   make(Answers),
		surface:   surface,
		completer: completer,
	}, nil
}

// Step returns the index of the active question.
func (c *Controller) Step() int { return c.step }

// Len returns the number of questions in the flow.
func (c *Controller) Len() int { return len(c.questions) }

// Current returns the active question.
func (c *Controller) Current() Question { return c.questions[c.step] }

// Answers returns a copy of the recorded answers.
func (c *Controller) Answers() Answers { return c.answers.Clone() }

// Completed reports whether the answers were handed to the completer.
func (c *Controller) Completed() bool { return c.completed }

// Outcome returns what the completer reported, if the flow completed.
func (c *Controller) Outcome() Outcome { return c.outcome }

// Progress returns the progress indicator value in percent.
func (c *Controller) Progress() int {
	return int(math.Round(100 * float64(c.step+1) / float64(len(c.questions))))
}

// Valid reports whether the active question's answer allows moving forward.
func (c *Controller) Valid() bool {
	q := c.Current()
	switch q.Type {
	case QuestionTypeText, QuestionTypeSingleChoice:
		// Single-choice answers are accepted as recorded, without checking them
		// against the declared options.
		return c.answers[q.Key] != ""
	case QuestionTypeCompletion:
		return true
	default:
		return false
	}
}

// Controls returns the current navigation control enablement.
func (c *Controller) Controls() Controls {
	return Controls{
		BackEnabled:    !c.completed && c.step > 0,
		ForwardEnabled: !c.completed && c.Valid(),
		Completion:     c.Current().Type == QuestionTypeCompletion,
	}
}

// Render pushes the active question, progress and control state to the surface.
func (c *Controller) Render() {
	q := c.Current()
	panel := Panel{
		Step:     c.step,
		Total:    len(c.questions),
		Question: q,
		Selected: -1,
	}
	switch q.Type {
	case QuestionTypeText:
		panel.TextValue = c.answers[q.Key]
	case QuestionTypeSingleChoice:
		if v, ok := c.answers[q.Key]; ok {
			panel.Selected = q.OptionIndex(v)
		}
	}

	c.surface.RenderPanel(panel)
	c.surface.SetProgress(c.Progress())
	if panel.Selected >= 0 {
		c.surface.MarkSelected(panel.Selected)
	}
	c.surface.SetControls(c.Controls())
	slog.Debug("Controller.Render: rendered question", "step", c.step, "type", q.Type, "key", q.Key)
}

// Advance moves to the next question when the active one is answered.
// It reports whether the step changed.
func (c *Controller) Advance() bool {
	if c.completed || c.step >= len(c.questions)-1 || !c.Valid() {
		slog.Debug("Controller.Advance: ignored", "step", c.step, "completed", c.completed)
		return false
	}
	c.step++
	c.Render()
	return true
}

// Retreat moves to the previous question. It reports whether the step changed.
func (c *Controller) Retreat() bool {
	if c.completed || c.step == 0 {
		slog.Debug("Controller.Retreat: ignored", "step", c.step, "completed", c.completed)
		return false
	}
	c.step--
	c.Render()
	return true
}

// RecordTextAnswer stores a text answer and refreshes control enablement.
// Keys of non-text questions are rejected.
func (c *Controller) RecordTextAnswer(key, value string) bool {
	if c.completed || !c.answerableAs(key, QuestionTypeText) {
		return false
	}
	c.answers[key] = value
	c.surface.SetControls(c.Controls())
	return true
}

// RecordChoice stores a choice answer and marks the option at index as the
// only selected option of the active question. When index does not point at
// an option carrying value, the marker follows value instead, so a later
// Render shows the same selection.
func (c *Controller) RecordChoice(key, value string, index int) bool {
	if c.completed || !c.answerableAs(key, QuestionTypeSingleChoice) {
		return false
	}
	c.answers[key] = value

	q := c.Current()
	if q.Key == key {
		if index < 0 || index >= len(q.Options) || q.Options[index].Value != value {
			index = q.OptionIndex(value)
		}
		c.surface.MarkSelected(index)
	}
	c.surface.SetControls(c.Controls())
	return true
}

// Complete hands the answers to the completer when the flow is on its
// terminal step. It reports whether the flow completed. On a completer
// error the flow stays on the terminal step so the caller can retry.
func (c *Controller) Complete(ctx context.Context) (bool, error) {
	if c.completed || c.Current().Type != QuestionTypeCompletion {
		slog.Debug("Controller.Complete: ignored", "step", c.step, "completed", c.completed)
		return false, nil
	}
	outcome, err := c.completer.Complete(ctx, c.answers.Clone())
	if err != nil {
		slog.Error("Controller.Complete: completer failed", "error", err)
		return false, fmt.Errorf("complete flow: %w", err)
	}
	c.completed = true
	c.outcome = outcome
	c.surface.SetControls(c.Controls())
	c.surface.Finish(outcome)
	slog.Info("Controller.Complete: flow completed", "answers", len(c.answers), "reference", outcome.Reference)
	return true, nil
}

// Snapshot captures the controller state for persistence.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{Step: c.step, Answers: c.answers.Clone(), Completed: c.completed}
}

// Restore replaces the controller state with a snapshot. Steps outside
// the question range are clamped, and answers for unknown keys are dropped.
func (c *Controller) Restore(s Snapshot) {
	step := s.Step
	if step < 0 {
		step = 0
	}
	if step > len(c.questions)-1 {
		step = len(c.questions) - 1
	}
	c.step = step
	c.completed = s.Completed
	c.answers = make(Answers, len(s.Answers))
	for k, v := range s.Answers {
		if c.answerable(k) {
			c.answers[k] = v
		}
	}
}

// answerableAs reports whether key belongs to a question of type typ.
func (c *Controller) answerableAs(key string, typ QuestionType) bool {
	for _, q := range c.questions {
		if key != "" && q.Key == key {
			return q.Type == typ
		}
	}
	return false
}

// answerable reports whether key belongs to a question that takes an answer.
func (c *Controller) answerable(key string) bool {
	if key == "" {
		return false
	}
	for _, q := range c.questions {
		if q.Key == key && q.Type != QuestionTypeCompletion {
			return true
		}
	}
	return false
}
