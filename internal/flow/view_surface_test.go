package flow

import (
	"context"
	"encoding/json"
	"testing"
)

func TestViewSurfaceTracksController(t *testing.T) {
	surface := NewViewSurface()
	c, err := NewController(scenarioQuestions(), surface, &recordingCompleter{})
	if err != nil {
		t.Fatal(err)
	}
	c.Render()

	v := surface.View()
	if v.Panel.Step != 0 || v.Panel.Total != 4 || v.Progress != 25 || v.Panel.Selected != -1 {
		t.Fatalf("initial view: %+v", v)
	}

	c.RecordTextAnswer("name", "Alex")
	c.Advance()
	c.RecordChoice("gender", "female", 1)

	v = surface.View()
	if v.Panel.Question.Key != "gender" || v.Panel.Selected != 1 || !v.Controls.ForwardEnabled || !v.Controls.BackEnabled {
		t.Fatalf("view after choice: %+v", v)
	}

	v.Panel.Question.Options[0].Label = "changed"
	if surface.View().Panel.Question.Options[0].Label == "changed" {
		t.Error("View must return a copy")
	}

	c.Restore(Snapshot{Step: 3, Answers: c.Answers()})
	c.Render()
	if _, err := c.Complete(context.Background()); err != nil {
		t.Fatal(err)
	}
	v = surface.View()
	if !v.Finished || v.Outcome == nil || v.Outcome.Redirect != "/dashboard" {
		t.Fatalf("finished view: %+v", v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["finished"] != true || decoded["progress"].(float64) != 100 {
		t.Errorf("unexpected JSON view: %s", data)
	}
}
