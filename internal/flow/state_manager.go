package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

// ErrInvalidTransition is returned by TransitionState when the participant is not in the expected state.
var ErrInvalidTransition = errors.New("invalid state transition")

// StoreBasedStateManager implements StateManager on top of a store.Store.
// Each participant and flow type maps to one models.FlowState record.
type StoreBasedStateManager struct {
	store store.Store
	now   func() time.Time
}

// NewStoreBasedStateManager creates a StateManager backed by st.
func NewStoreBasedStateManager(st store.Store) *StoreBasedStateManager {
	return &StoreBasedStateManager{store: st, now: time.Now}
}

func (sm *StoreBasedStateManager) load(participantID string, flowType models.FlowType) (*models.FlowState, error) {
	fs, err := sm.store.GetFlowState(participantID, flowType)
	if err != nil {
		slog.Error("StoreBasedStateManager.load: store error", "error", err, "participantID", participantID, "flowType", flowType)
		return nil, fmt.Errorf("load %s state for %s: %w", flowType, participantID, err)
	}
	return fs, nil
}

// update applies mutate to the stored record, creating it when missing, and saves it.
func (sm *StoreBasedStateManager) update(participantID string, flowType models.FlowType, mutate func(*models.FlowState)) error {
	fs, err := sm.load(participantID, flowType)
	if err != nil {
		return err
	}
	now := sm.now()
	if fs == nil {
		fs = &models.FlowState{ParticipantID: participantID, FlowType: flowType, CreatedAt: now}
	}
	if fs.StateData == nil {
		fs.StateData = make(map[models.DataKey]string)
	}
	mutate(fs)
	fs.UpdatedAt = now

	if err := sm.store.SaveFlowState(*fs); err != nil {
		slog.Error("StoreBasedStateManager.update: save failed", "error", err, "participantID", participantID, "flowType", flowType)
		return fmt.Errorf("save %s state for %s: %w", flowType, participantID, err)
	}
	return nil
}

// GetCurrentState returns "" when the participant has no recorded state.
func (sm *StoreBasedStateManager) GetCurrentState(ctx context.Context, participantID string, flowType models.FlowType) (models.StateType, error) {
	fs, err := sm.load(participantID, flowType)
	if err != nil || fs == nil {
		return "", err
	}
	return fs.CurrentState, nil
}

func (sm *StoreBasedStateManager) SetCurrentState(ctx context.Context, participantID string, flowType models.FlowType, state models.StateType) error {
	err := sm.update(participantID, flowType, func(fs *models.FlowState) { fs.CurrentState = state })
	if err == nil {
		slog.Debug("StoreBasedStateManager.SetCurrentState: state set", "participantID", participantID, "flowType", flowType, "state", state)
	}
	return err
}

// GetStateData returns "" for a missing record or key.
func (sm *StoreBasedStateManager) GetStateData(ctx context.Context, participantID string, flowType models.FlowType, key models.DataKey) (string, error) {
	fs, err := sm.load(participantID, flowType)
	if err != nil || fs == nil {
		return "", err
	}
	return fs.StateData[key], nil
}

func (sm *StoreBasedStateManager) SetStateData(ctx context.Context, participantID string, flowType models.FlowType, key models.DataKey, value string) error {
	return sm.update(participantID, flowType, func(fs *models.FlowState) { fs.StateData[key] = value })
}

// TransitionState moves the participant to toState only if it is currently in fromState.
func (sm *StoreBasedStateManager) TransitionState(ctx context.Context, participantID string, flowType models.FlowType, fromState, toState models.StateType) error {
	current, err := sm.GetCurrentState(ctx, participantID, flowType)
	if err != nil {
		return err
	}
	if current != fromState {
		slog.Warn("StoreBasedStateManager.TransitionState: rejected", "participantID", participantID, "expected", fromState, "current", current)
		return fmt.Errorf("%w: expected %s, current is %s", ErrInvalidTransition, fromState, current)
	}
	if err := sm.SetCurrentState(ctx, participantID, flowType, toState); err != nil {
		return err
	}
	slog.Info("StoreBasedStateManager.TransitionState: succeeded", "participantID", participantID, "flowType", flowType, "from", fromState, "to", toState)
	return nil
}

// ResetState deletes the participant's record for flowType.
func (sm *StoreBasedStateManager) ResetState(ctx context.Context, participantID string, flowType models.FlowType) error {
	if err := sm.store.DeleteFlowState(participantID, flowType); err != nil {
		slog.Error("StoreBasedStateManager.ResetState: delete failed", "error", err, "participantID", participantID, "flowType", flowType)
		return fmt.Errorf("reset %s state for %s: %w", flowType, participantID, err)
	}
	slog.Info("StoreBasedStateManager.ResetState: state cleared", "participantID", participantID, "flowType", flowType)
	return nil
}
