package flow

import (
	"context"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// StateManager persists a participant's position in a flow plus keyed
// string data (the onboarding snapshot, the created profile id).
type StateManager interface {
	GetCurrentState(ctx context.Context, participantID string, flowType models.FlowType) (models.StateType, error)
	SetCurrentState(ctx context.Context, participantID string, flowType models.FlowType, state models.StateType) error
	GetStateData(ctx context.Context, participantID string, flowType models.FlowType, key models.DataKey) (string, error)
	SetStateData(ctx context.Context, participantID string, flowType models.FlowType, key models.DataKey, value string) error
	TransitionState(ctx context.Context, participantID string, flowType models.FlowType, fromState, toState models.StateType) error
	ResetState(ctx context.Context, participantID string, flowType models.FlowType) error
}
