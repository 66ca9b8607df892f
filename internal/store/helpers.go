package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func copyStateData(in map[models.DataKey]string) map[models.DataKey]string {
	if in == nil {
		return nil
	}
	out := make(map[models.DataKey]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyAnswers(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// encodeJSON marshals m for a text column; empty maps become an empty string.
func encodeJSON[K comparable](m map[K]string) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON column: %w", err)
	}
	return string(b), nil
}

// decodeStateData parses a state_data column. Corrupt data yields an empty map
// rather than failing the read.
func decodeStateData(raw string, participantID string) map[models.DataKey]string {
	if raw == "" {
		return nil
	}
	data := make(map[models.DataKey]string)
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		slog.Error("store.decodeStateData: JSON unmarshal failed", "error", err, "participantID", participantID)
		return make(map[models.DataKey]string)
	}
	return data
}

func decodeAnswers(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	answers := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, fmt.Errorf("failed to decode profile answers: %w", err)
	}
	return answers, nil
}

// scanMoodEntries reads mood_entries rows into models.MoodEntry values.
func scanMoodEntries(rows *sql.Rows) ([]models.MoodEntry, error) {
	var entries []models.MoodEntry
	for rows.Next() {
		var e models.MoodEntry
		var analysisJSON string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &analysisJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood entry row: %w", err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &e.Analysis); err != nil {
			return nil, fmt.Errorf("failed to decode mood analysis for entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mood entry rows: %w", err)
	}
	return entries, nil
}
