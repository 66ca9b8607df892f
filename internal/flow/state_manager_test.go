package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

func TestStoreBasedStateManager(t *testing.T) {
	ctx := context.Background()
	sm := NewStoreBasedStateManager(store.NewInMemoryStore())
	const pid = "254700000001"

	state, err := sm.GetCurrentState(ctx, pid, models.FlowTypeOnboarding)
	if err != nil || state != "" {
		t.Fatalf("expected empty state, got %q err=%v", state, err)
	}
	value, err := sm.GetStateData(ctx, pid, models.FlowTypeOnboarding, models.DataKeyProfileID)
	if err != nil || value != "" {
		t.Fatalf("expected empty data, got %q err=%v", value, err)
	}

	if err := sm.SetStateData(ctx, pid, models.FlowTypeOnboarding, models.DataKeyProfileID, "p-1"); err != nil {
		t.Fatal(err)
	}
	if err := sm.SetCurrentState(ctx, pid, models.FlowTypeOnboarding, models.StateOnboardingInProgress); err != nil {
		t.Fatal(err)
	}
	value, _ = sm.GetStateData(ctx, pid, models.FlowTypeOnboarding, models.DataKeyProfileID)
	if value != "p-1" {
		t.Errorf("state data lost on state change: %q", value)
	}

	err = sm.TransitionState(ctx, pid, models.FlowTypeOnboarding, models.StateOnboardingCompleted, models.StateOnboardingInProgress)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := sm.TransitionState(ctx, pid, models.FlowTypeOnboarding, models.StateOnboardingInProgress, models.StateOnboardingCompleted); err != nil {
		t.Fatal(err)
	}
	state, _ = sm.GetCurrentState(ctx, pid, models.FlowTypeOnboarding)
	if state != models.StateOnboardingCompleted {
		t.Errorf("state = %q, want completed", state)
	}

	if err := sm.ResetState(ctx, pid, models.FlowTypeOnboarding); err != nil {
		t.Fatal(err)
	}
	state, _ = sm.GetCurrentState(ctx, pid, models.FlowTypeOnboarding)
	if state != "" {
		t.Errorf("expected state cleared, got %q", state)
	}
}

func TestSnapshotPersistence(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	sm := NewStoreBasedStateManager(st)
	const pid = "254700000002"

	if _, ok, err := LoadSnapshot(ctx, sm, pid); ok || err != nil {
		t.Fatalf("expected no snapshot, ok=%v err=%v", ok, err)
	}

	snap := Snapshot{Step: 2, Answers: Answers{"name": "Alex", "gender": "female"}}
	if err := SaveSnapshot(ctx, sm, pid, snap); err != nil {
		t.Fatal(err)
	}
	got, ok, err := LoadSnapshot(ctx, sm, pid)
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot ok=%v err=%v", ok, err)
	}
	if got.Step != 2 || got.Answers["gender"] != "female" || got.Completed {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	state, _ := sm.GetCurrentState(ctx, pid, models.FlowTypeOnboarding)
	if state != models.StateOnboardingInProgress {
		t.Errorf("state = %q, want in progress", state)
	}

	snap.Completed = true
	if err := SaveSnapshot(ctx, sm, pid, snap); err != nil {
		t.Fatal(err)
	}
	state, _ = sm.GetCurrentState(ctx, pid, models.FlowTypeOnboarding)
	if state != models.StateOnboardingCompleted {
		t.Errorf("state = %q, want completed", state)
	}

	if err := sm.SetStateData(ctx, pid, models.FlowTypeOnboarding, models.DataKeyOnboardingSnapshot, "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := LoadSnapshot(ctx, sm, pid); ok || err != nil {
		t.Errorf("corrupt snapshot should be discarded, ok=%v err=%v", ok, err)
	}
	state, _ = sm.GetCurrentState(ctx, pid, models.FlowTypeOnboarding)
	raw, _ := sm.GetStateData(ctx, pid, models.FlowTypeOnboarding, models.DataKeyOnboardingSnapshot)
	if state != "" || raw != "" {
		t.Errorf("corrupt snapshot should reset the record, state=%q data=%q", state, raw)
	}
}

func TestSaveSnapshotCompletionIsGuarded(t *testing.T) {
	ctx := context.Background()
	sm := NewStoreBasedStateManager(store.NewInMemoryStore())
	const pid = "254700000003"

	// A writer that read in progress loses the race against one that
	// already completed the participant.
	if err := SaveSnapshot(ctx, sm, pid, Snapshot{Step: 1}); err != nil {
		t.Fatal(err)
	}
	stale := &staleStateManager{StateManager: sm, state: models.StateOnboardingInProgress}
	if err := sm.SetCurrentState(ctx, pid, models.FlowTypeOnboarding, models.StateOnboardingCompleted); err != nil {
		t.Fatal(err)
	}
	err := SaveSnapshot(ctx, stale, pid, Snapshot{Step: 3, Completed: true})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Saving a completed snapshot with no prior state sets it directly.
	if err := SaveSnapshot(ctx, sm, "254700000004", Snapshot{Step: 3, Completed: true}); err != nil {
		t.Fatal(err)
	}
	state, _ := sm.GetCurrentState(ctx, "254700000004", models.FlowTypeOnboarding)
	if state != models.StateOnboardingCompleted {
		t.Errorf("state = %q, want completed", state)
	}
}

func TestProfileIDPersistence(t *testing.T) {
	ctx := context.Background()
	sm := NewStoreBasedStateManager(store.NewInMemoryStore())
	const pid = "254700000005"

	if id, err := LoadProfileID(ctx, sm, pid); id != "" || err != nil {
		t.Fatalf("expected no profile id, got %q err=%v", id, err)
	}
	if err := SaveProfileID(ctx, sm, pid, "profile-9"); err != nil {
		t.Fatal(err)
	}
	if id, _ := LoadProfileID(ctx, sm, pid); id != "profile-9" {
		t.Errorf("profile id = %q, want profile-9", id)
	}
}

// staleStateManager reports a fixed current state, as a reader that raced
// another writer would see it.
type staleStateManager struct {
	StateManager
	state models.StateType
}

func (s *staleStateManager) GetCurrentState(ctx context.Context, participantID string, flowType models.FlowType) (models.StateType, error) {
	return s.state, nil
}
