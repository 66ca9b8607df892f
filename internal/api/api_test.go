package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/flow"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/mood"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/onboarding"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/payment"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

func TestSessionPrune(t *testing.T) {
	r := newSessionRegistry(0)
	profiles := onboarding.NewService(store.NewInMemoryStore())
	if _, err := r.create(flow.DefaultQuestions(), profiles); err != nil {
		t.Fatal(err)
	}
	if n := r.prune(time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("fresh session pruned")
	}
	if n := r.prune(time.Now().Add(time.Second)); n != 1 || r.count() != 0 {
		t.Errorf("expected idle session to be pruned, removed=%d", n)
	}
}

func TestSessionRegistryLimit(t *testing.T) {
	r := newSessionRegistry(2)
	profiles := onboarding.NewService(store.NewInMemoryStore())
	for i := 0; i < 2; i++ {
		if _, err := r.create(flow.DefaultQuestions(), profiles); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.create(flow.DefaultQuestions(), profiles); !errors.Is(err, errTooManySessions) {
		t.Fatalf("expected errTooManySessions, got %v", err)
	}

	// Pruning idle sessions makes room again.
	r.prune(time.Now().Add(time.Second))
	if _, err := r.create(flow.DefaultQuestions(), profiles); err != nil {
		t.Errorf("expected room after prune, got %v", err)
	}
	if newSessionRegistry(-1).max != DefaultMaxSessions {
		t.Error("non-positive limit should fall back to the default")
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty entry", mood.ErrEmptyEntry, http.StatusBadRequest},
		{"entry too long", fmt.Errorf("validate: %w", mood.ErrEntryTooLong), http.StatusBadRequest},
		{"missing email", payment.ErrMissingEmail, http.StatusBadRequest},
		{"unknown plan", fmt.Errorf("%w: %q", payment.ErrUnknownPlan, "gold"), http.StatusBadRequest},
		{"analysis", fmt.Errorf("%w: status 500", mood.ErrAnalysis), http.StatusBadGateway},
		{"gateway", fmt.Errorf("%w: status 503", payment.ErrGateway), http.StatusBadGateway},
		{"mood store", fmt.Errorf("%w: disk full", mood.ErrStore), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
