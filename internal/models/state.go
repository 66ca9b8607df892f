// Package models defines state management structures for MindVibe flows.
package models

import "time"

// FlowState represents the current state of a participant in a flow.
type FlowState struct {
	ParticipantID string             `json:"participant_id"`
	FlowType      FlowType           `json:"flow_type"`
	CurrentState  StateType          `json:"current_state"`
	StateData     map[DataKey]string `json:"state_data,omitempty"` // Additional state-specific data
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
