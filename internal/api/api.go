// Package api provides the HTTP server for MindVibe.
//
// It exposes the onboarding flow as JSON sessions, mood analysis and
// history, subscription plans and checkout, and the Twilio webhook when
// the Twilio channel is active.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/flow"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/messaging"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/mood"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/onboarding"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/payment"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultSessionTTL      = 24 * time.Hour
	DefaultShutdownTimeout = 10 * time.Second
	sessionPruneInterval   = 10 * time.Minute
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string
	Questions   []flow.Question
	Mood        *mood.Tracker
	Payments    *payment.Client
	Twilio      *messaging.TwilioService
	SessionTTL  time.Duration
	MaxSessions int
	Logger      *slog.Logger
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithQuestions replaces the default onboarding questions.
func WithQuestions(qs []flow.Question) Option {
	return func(o *Opts) {
		o.Questions = qs
	}
}

// WithMoodTracker enables the mood endpoints.
func WithMoodTracker(t *mood.Tracker) Option {
	return func(o *Opts) {
		o.Mood = t
	}
}

// WithPaymentClient enables subscription checkout.
func WithPaymentClient(c *payment.Client) Option {
	return func(o *Opts) {
		o.Payments = c
	}
}

// WithTwilioWebhook mounts the Twilio inbound message webhook.
func WithTwilioWebhook(s *messaging.TwilioService) Option {
	return func(o *Opts) {
		o.Twilio = s
	}
}

// WithSessionTTL sets how long idle onboarding sessions are kept.
func WithSessionTTL(d time.Duration) Option {
	return func(o *Opts) {
		o.SessionTTL = d
	}
}

// WithMaxSessions caps concurrently live onboarding sessions.
func WithMaxSessions(n int) Option {
	return func(o *Opts) {
		o.MaxSessions = n
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) {
		o.Logger = l
	}
}

// Server serves the MindVibe HTTP API.
type Server struct {
	addr       string
	questions  []flow.Question
	profiles   *onboarding.Service
	mood       *mood.Tracker
	payments   *payment.Client
	twilio     *messaging.TwilioService
	sessions   *sessionRegistry
	sessionTTL time.Duration
	logger     *slog.Logger
	router     chi.Router
}

// NewServer creates a server whose onboarding sessions complete through profiles.
func NewServer(profiles *onboarding.Service, opts ...Option) (*Server, error) {
	if profiles == nil {
		return nil, errors.New("onboarding service is required")
	}
	cfg := Opts{Addr: DefaultAddr, SessionTTL: DefaultSessionTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Questions == nil {
		cfg.Questions = flow.DefaultQuestions()
	}
	if err := flow.ValidateQuestions(cfg.Questions); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		addr:       cfg.Addr,
		questions:  cfg.Questions,
		profiles:   profiles,
		mood:       cfg.Mood,
		payments:   cfg.Payments,
		twilio:     cfg.Twilio,
		sessions:   newSessionRegistry(cfg.MaxSessions),
		sessionTTL: cfg.SessionTTL,
		logger:     cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(s.logger))
	r.Use(Recovery(s.logger))

	r.Get("/health", s.healthHandler)

	r.Route("/onboarding/sessions", func(r chi.Router) {
		r.Post("/", s.createSessionHandler)
		r.Get("/{id}", s.getSessionHandler)
		r.Post("/{id}/text", s.textAnswerHandler)
		r.Post("/{id}/choice", s.choiceAnswerHandler)
		r.Post("/{id}/advance", s.advanceHandler)
		r.Post("/{id}/retreat", s.retreatHandler)
		r.Post("/{id}/complete", s.completeHandler)
	})
	r.Post("/save-onboarding", s.saveOnboardingHandler)

	r.Post("/analyze-mood", s.analyzeMoodHandler)
	r.Get("/mood-history", s.moodHistoryHandler)

	r.Get("/subscription/plans", s.plansHandler)
	r.Post("/create-subscription", s.createSubscriptionHandler)

	if s.twilio != nil {
		r.Post("/twilio/webhook", s.twilio.WebhookHandler)
	}
	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: MindVibe API listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server.Run: server failed", "error", err)
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	slog.Info("Server.Run: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	return nil
}

func (s *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.prune(time.Now().Add(-s.sessionTTL)); n > 0 {
				slog.Debug("Server.pruneSessions: idle sessions removed", "count", n)
			}
		}
	}
}
