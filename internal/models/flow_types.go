// Package models defines flow type definitions to avoid circular imports.
package models

// FlowType represents a specific kind of stateful flow
type FlowType string

// StateType represents a specific state within a flow
type StateType string

// DataKey represents a key for storing state-specific data
type DataKey string

// Flow type constants.
const (
	FlowTypeOnboarding FlowType = "onboarding"
)

// State constants for the onboarding flow.
const (
	StateOnboardingInProgress StateType = "ONBOARDING_IN_PROGRESS"
	StateOnboardingCompleted  StateType = "ONBOARDING_COMPLETED"
)

// Data key constants for the onboarding flow.
const (
	DataKeyOnboardingSnapshot DataKey = "onboardingSnapshot" // JSON-encoded controller snapshot
	DataKeyProfileID          DataKey = "profileID"          // Profile created on completion
)
