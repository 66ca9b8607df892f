// Package flow implements the onboarding question flow for MindVibe.
//
// A flow is an ordered question sequence ending in a single completion step.
// The Controller walks a user through it, validating each step before the
// user may move forward, and renders every step through a Surface.
package flow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	_ "embed"

	"gopkg.in/yaml.v3"
)

// QuestionType selects the input widget and validation rule for a question.
type QuestionType string

const (
	// QuestionTypeText collects a free-text answer.
	QuestionTypeText QuestionType = "text"
	// QuestionTypeSingleChoice collects exactly one option value.
	QuestionTypeSingleChoice QuestionType = "single-choice"
	// QuestionTypeCompletion is the terminal step of every flow.
	QuestionTypeCompletion QuestionType = "completion"
)

// ErrInvalidQuestionSet is returned when a question sequence breaks the flow invariants.
var ErrInvalidQuestionSet = errors.New("invalid question set")

// Option is a selectable answer of a single-choice question.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Question is one step of the onboarding flow.
type Question struct {
	Emoji       string       `yaml:"emoji" json:"emoji"`
	Text        string       `yaml:"text" json:"text"`
	Type        QuestionType `yaml:"type" json:"type"`
	Key         string       `yaml:"key,omitempty" json:"key,omitempty"`
	Placeholder string       `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Options     []Option     `yaml:"options,omitempty" json:"options,omitempty"`
}

// OptionIndex returns the index of the option with the given value, or -1.
func (q Question) OptionIndex(value string) int {
	for i, opt := range q.Options {
		if opt.Value == value {
			return i
		}
	}
	return -1
}

// questionFile is the YAML document layout for question sets.
type questionFile struct {
	Questions []Question `yaml:"questions"`
}

//go:embed questions.yaml
var defaultQuestionsYAML []byte

// LoadQuestions parses a YAML question set and validates it.
func LoadQuestions(r io.Reader) ([]Question, error) {
	var doc questionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		slog.Error("flow.LoadQuestions: failed to decode YAML", "error", err)
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	if err := ValidateQuestions(doc.Questions); err != nil {
		return nil, err
	}
	slog.Debug("flow.LoadQuestions: question set loaded", "count", len(doc.Questions))
	return doc.Questions, nil
}

// DefaultQuestions returns the built-in MindVibe onboarding questions.
func DefaultQuestions() []Question {
	questions, err := LoadQuestions(bytes.NewReader(defaultQuestionsYAML))
	if err != nil {
		// The embedded set is part of the binary; a failure here is a build defect.
		panic(fmt.Sprintf("embedded question set is invalid: %v", err))
	}
	return questions
}

// ValidateQuestions checks that a sequence ends with exactly one completion
// step and that every answerable question is well formed.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuestionSet)
	}
	last := len(questions) - 1
	if questions[last].Type != QuestionTypeCompletion {
		return fmt.Errorf("%w: last question must be of type %q", ErrInvalidQuestionSet, QuestionTypeCompletion)
	}

	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		switch q.Type {
		case QuestionTypeCompletion:
			if i != last {
				return fmt.Errorf("%w: completion question at index %d is not last", ErrInvalidQuestionSet, i)
			}
			continue
		case QuestionTypeText:
		case QuestionTypeSingleChoice:
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: question %q has no options", ErrInvalidQuestionSet, q.Key)
			}
			for j, opt := range q.Options {
				if opt.Value == "" {
					return fmt.Errorf("%w: option %d of question %q has an empty value", ErrInvalidQuestionSet, j, q.Key)
				}
			}
		default:
			return fmt.Errorf("%w: question at index %d has unknown type %q", ErrInvalidQuestionSet, i, q.Type)
		}

		if q.Key == "" {
			return fmt.Errorf("%w: question at index %d has no key", ErrInvalidQuestionSet, i)
		}
		if seen[q.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidQuestionSet, q.Key)
		}
		seen[q.Key] = true
	}
	return nil
}
