package flow

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultQuestions(t *testing.T) {
	qs := DefaultQuestions()
	if len(qs) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(qs))
	}
	wantKeys := []string{"name", "gender", "age", ""}
	for i, k := range wantKeys {
		if qs[i].Key != k {
			t.Errorf("question %d key = %q, want %q", i, qs[i].Key, k)
		}
	}
	if qs[0].Type != QuestionTypeText || qs[0].Placeholder == "" {
		t.Errorf("name question: %+v", qs[0])
	}
	if qs[1].OptionIndex("nonbinary") != 2 || qs[1].OptionIndex("other") != -1 {
		t.Errorf("gender options: %+v", qs[1].Options)
	}
	if len(qs[2].Options) != 5 || qs[2].Options[4].Value != "55+" {
		t.Errorf("age options: %+v", qs[2].Options)
	}
	if qs[3].Type != QuestionTypeCompletion {
		t.Errorf("last question must be completion: %+v", qs[3])
	}
}

func TestLoadQuestions(t *testing.T) {
	doc := `
questions:
  - text: "Nickname?"
    type: text
    key: nickname
  - text: "All set"
    type: completion
`
	qs, err := LoadQuestions(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if len(qs) != 2 || qs[0].Key != "nickname" {
		t.Errorf("unexpected questions: %+v", qs)
	}
}

func TestLoadQuestionsRejectsUnknownFields(t *testing.T) {
	doc := `
questions:
  - text: "Nickname?"
    type: text
    key: nickname
    required: true
  - text: "All set"
    type: completion
`
	if _, err := LoadQuestions(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateQuestions(t *testing.T) {
	completion := Question{Text: "Done", Type: QuestionTypeCompletion}
	text := func(key string) Question { return Question{Text: "?", Type: QuestionTypeText, Key: key} }

	tests := []struct {
		name      string
		questions []Question
	}{
		{"empty", nil},
		{"no completion", []Question{text("a")}},
		{"completion not last", []Question{completion, text("a"), completion}},
		{"missing key", []Question{text(""), completion}},
		{"duplicate key", []Question{text("a"), text("a"), completion}},
		{"choice without options", []Question{{Text: "?", Type: QuestionTypeSingleChoice, Key: "c"}, completion}},
		{"option without value", []Question{{Text: "?", Type: QuestionTypeSingleChoice, Key: "c", Options: []Option{{Label: "A"}}}, completion}},
		{"unknown type", []Question{{Text: "?", Type: "multi-choice", Key: "m"}, completion}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateQuestions(tt.questions); !errors.Is(err, ErrInvalidQuestionSet) {
				t.Errorf("expected ErrInvalidQuestionSet, got %v", err)
			}
		})
	}

	if err := ValidateQuestions(scenarioQuestions()); err != nil {
		t.Errorf("scenario questions should be valid: %v", err)
	}
}
