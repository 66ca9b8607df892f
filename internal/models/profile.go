package models

import "time"

// UserProfile is the record created when a user finishes onboarding.
type UserProfile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Gender    string            `json:"gender,omitempty"`
	Age       string            `json:"age,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// OnboardingSaveRequest is the request body of POST /save-onboarding.
type OnboardingSaveRequest struct {
	Name    string            `json:"name"`
	Gender  string            `json:"gender,omitempty"`
	Age     string            `json:"age,omitempty"`
	Answers map[string]string `json:"answers,omitempty"`
}
