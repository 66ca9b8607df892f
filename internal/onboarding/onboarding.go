// Package onboarding turns finished onboarding answers into a user profile.
package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/flow"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

// DefaultRedirect is the destination shown once onboarding completes.
const DefaultRedirect = "/dashboard"

// Answer keys copied onto the profile record.
const (
	KeyName   = "name"
	KeyGender = "gender"
	KeyAge    = "age"
)

// WelcomeGenerator writes a personal welcome line, typically via GenAI.
type WelcomeGenerator interface {
	GenerateWelcome(ctx context.Context, name string) (string, error)
}

// Opts holds configuration options for the onboarding service.
type Opts struct {
	Welcome  WelcomeGenerator
	Redirect string
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithWelcomeGenerator enables generated welcome messages.
func WithWelcomeGenerator(g WelcomeGenerator) Option {
	return func(o *Opts) {
		o.Welcome = g
	}
}

// WithRedirect overrides DefaultRedirect.
func WithRedirect(path string) Option {
	return func(o *Opts) {
		o.Redirect = path
	}
}

// Service stores onboarding results. It implements flow.Completer.
type Service struct {
	st       store.Store
	welcome  WelcomeGenerator
	redirect string
	now      func() time.Time
}

// NewService creates an onboarding service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	cfg := Opts{Redirect: DefaultRedirect}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{st: st, welcome: cfg.Welcome, redirect: cfg.Redirect, now: time.Now}
}

// Complete persists the answers of a finished flow as a new profile and
// returns the outcome shown to the user.
func (s *Service) Complete(ctx context.Context, answers flow.Answers) (flow.Outcome, error) {
	profile, err := s.SaveProfile(ctx, models.OnboardingSaveRequest{
		Name:    answers[KeyName],
		Gender:  answers[KeyGender],
		Age:     answers[KeyAge],
		Answers: answers.Clone(),
	})
	if err != nil {
		return flow.Outcome{}, err
	}
	return flow.Outcome{
		Reference: profile.ID,
		Redirect:  s.redirect,
		Message:   s.welcomeMessage(ctx, profile.Name),
	}, nil
}

// SaveProfile stores a profile built from a save request and returns it.
func (s *Service) SaveProfile(ctx context.Context, req models.OnboardingSaveRequest) (models.UserProfile, error) {
	profile := models.UserProfile{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Gender:    req.Gender,
		Age:       req.Age,
		Answers:   req.Answers,
		CreatedAt: s.now(),
	}
	if err := s.st.SaveUserProfile(profile); err != nil {
		slog.Error("Service.SaveProfile: failed to save profile", "error", err, "profileID", profile.ID)
		return models.UserProfile{}, fmt.Errorf("save user profile: %w", err)
	}
	slog.Info("Service.SaveProfile: profile saved", "profileID", profile.ID, "answers", len(profile.Answers))
	return profile, nil
}

// welcomeMessage returns a generated welcome, falling back to a static one.
func (s *Service) welcomeMessage(ctx context.Context, name string) string {
	if s.welcome != nil {
		msg, err := s.welcome.GenerateWelcome(ctx, name)
		if err == nil && msg != "" {
			return msg
		}
		slog.Warn("Service.welcomeMessage: using static welcome", "error", err)
	}
	return StaticWelcome(name)
}

// StaticWelcome is the welcome shown when no generator is configured.
func StaticWelcome(name string) string {
	if name == "" {
		return "🎉 All Done! You're ready to start your MindVibe journey."
	}
	return fmt.Sprintf("🎉 All Done, %s! You're ready to start your MindVibe journey.", name)
}
