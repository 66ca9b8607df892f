package flow

// View is the JSON view model served to web clients.
type View struct {
	Panel    Panel    `json:"panel"`
	Progress int      `json:"progress"`
	Controls Controls `json:"controls"`
	Finished bool     `json:"finished"`
	Outcome  *Outcome `json:"outcome,omitempty"`
}

// ViewSurface records the rendered state as a View.
type ViewSurface struct {
	view View
}

// NewViewSurface creates an empty view surface.
func NewViewSurface() *ViewSurface {
	return &ViewSurface{view: View{Panel: Panel{Selected: -1}}}
}

// View returns a copy of the current view model.
func (s *ViewSurface) View() View {
	v := s.view
	if s.view.Outcome != nil {
		o := *s.view.Outcome
		v.Outcome = &o
	}
	if s.view.Panel.Question.Options != nil {
		v.Panel.Question.Options = append([]Option(nil), s.view.Panel.Question.Options...)
	}
	return v
}

func (s *ViewSurface) RenderPanel(p Panel) { s.view.Panel = p }

func (s *ViewSurface) SetProgress(percent int) { s.view.Progress = percent }

func (s *ViewSurface) MarkSelected(index int) { s.view.Panel.Selected = index }

func (s *ViewSurface) SetControls(c Controls) { s.view.Controls = c }

func (s *ViewSurface) Finish(o Outcome) {
	s.view.Finished = true
	s.view.Outcome = &o
}
