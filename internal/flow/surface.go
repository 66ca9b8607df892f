package flow

import "context"

// Panel is the view model of one rendered question.
type Panel struct {
	Step     int      `json:"step"`
	Total    int      `json:"total"`
	Question Question `json:"question"`
	// TextValue pre-fills the input of a text question.
	TextValue string `json:"text_value,omitempty"`
	// Selected is the index of the marked option, -1 when none is marked.
	Selected int `json:"selected"`
}

// Controls describes which navigation controls are enabled.
type Controls struct {
	BackEnabled    bool `json:"back_enabled"`
	ForwardEnabled bool `json:"forward_enabled"`
	// Completion is set on the terminal step, where forward means complete.
	Completion bool `json:"completion"`
}

// Outcome is what the completion collaborator reports back once answers are handed over.
type Outcome struct {
	Reference string `json:"reference,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Surface is the display capability a Controller renders onto.
type Surface interface {
	// RenderPanel replaces the whole question panel.
	RenderPanel(p Panel)
	// SetProgress sets the progress indicator, in percent.
	SetProgress(percent int)
	// MarkSelected marks exactly the option at index as selected; -1 clears the marker.
	MarkSelected(index int)
	// SetControls updates navigation control enablement.
	SetControls(c Controls)
	// Finish shows the completion outcome and leaves the flow.
	Finish(o Outcome)
}

// Completer receives the final answers of a flow.
type Completer interface {
	Complete(ctx context.Context, answers Answers) (Outcome, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, answers Answers) (Outcome, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, answers Answers) (Outcome, error) {
	return f(ctx, answers)
}

// Answers maps question keys to answer values.
type Answers map[string]string

// Clone returns an independent copy of the answers.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
