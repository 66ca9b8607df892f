package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// SaveSnapshot persists a controller snapshot for a participant's onboarding
// flow. Completing a flow that was in progress is recorded as a guarded
// transition, so a concurrent writer that already moved the participant on
// makes the save fail with ErrInvalidTransition.
func SaveSnapshot(ctx context.Context, sm StateManager, participantID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode onboarding snapshot: %w", err)
	}
	if err := sm.SetStateData(ctx, participantID, models.FlowTypeOnboarding, models.DataKeyOnboardingSnapshot, string(data)); err != nil {
		return fmt.Errorf("save onboarding snapshot: %w", err)
	}

	current, err := sm.GetCurrentState(ctx, participantID, models.FlowTypeOnboarding)
	if err != nil {
		return fmt.Errorf("load onboarding state: %w", err)
	}
	state := models.StateOnboardingInProgress
	if snap.Completed {
		state = models.StateOnboardingCompleted
	}
	switch {
	case current == state:
	case current == models.StateOnboardingInProgress && state == models.StateOnboardingCompleted:
		err = sm.TransitionState(ctx, participantID, models.FlowTypeOnboarding, current, state)
	default:
		err = sm.SetCurrentState(ctx, participantID, models.FlowTypeOnboarding, state)
	}
	if err != nil {
		return fmt.Errorf("save onboarding state: %w", err)
	}
	slog.Debug("flow.SaveSnapshot: saved", "participantID", participantID, "step", snap.Step, "completed", snap.Completed)
	return nil
}

// LoadSnapshot reads a participant's persisted snapshot. The boolean is false
// when nothing was saved yet. A corrupt snapshot clears the participant's
// onboarding record so the flow restarts from the first question.
func LoadSnapshot(ctx context.Context, sm StateManager, participantID string) (Snapshot, bool, error) {
	raw, err := sm.GetStateData(ctx, participantID, models.FlowTypeOnboarding, models.DataKeyOnboardingSnapshot)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load onboarding snapshot: %w", err)
	}
	if raw == "" {
		return Snapshot{}, false, nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		slog.Warn("flow.LoadSnapshot: discarding corrupt snapshot", "participantID", participantID, "error", err)
		if err := sm.ResetState(ctx, participantID, models.FlowTypeOnboarding); err != nil {
			return Snapshot{}, false, fmt.Errorf("reset corrupt onboarding state: %w", err)
		}
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// SaveProfileID records the profile created when the participant completed onboarding.
func SaveProfileID(ctx context.Context, sm StateManager, participantID, profileID string) error {
	if err := sm.SetStateData(ctx, participantID, models.FlowTypeOnboarding, models.DataKeyProfileID, profileID); err != nil {
		return fmt.Errorf("save profile id: %w", err)
	}
	return nil
}

// LoadProfileID returns the recorded profile id, or "" when none was saved.
func LoadProfileID(ctx context.Context, sm StateManager, participantID string) (string, error) {
	id, err := sm.GetStateData(ctx, participantID, models.FlowTypeOnboarding, models.DataKeyProfileID)
	if err != nil {
		return "", fmt.Errorf("load profile id: %w", err)
	}
	return id, nil
}
