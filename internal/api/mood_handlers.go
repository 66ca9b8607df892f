package api

import (
	"log/slog"
	"net/http"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/mood"
)

// UserIDHeader identifies the user whose mood history is read or written.
const UserIDHeader = "X-User-ID"

// defaultUserID is used when a request names no user.
const defaultUserID = "anonymous"

// analyzeMoodResult is the result of POST /analyze-mood.
type analyzeMoodResult struct {
	Entry      models.MoodEntry `json:"entry"`
	Sentiment  string           `json:"sentiment"`
	Confidence int              `json:"confidence"`
	Stats      models.MoodStats `json:"stats"`
}

func userID(r *http.Request, fromBody string) string {
	switch {
	case fromBody != "":
		return fromBody
	case r.Header.Get(UserIDHeader) != "":
		return r.Header.Get(UserIDHeader)
	case r.URL.Query().Get("user_id") != "":
		return r.URL.Query().Get("user_id")
	}
	return defaultUserID
}

func (s *Server) analyzeMoodHandler(w http.ResponseWriter, r *http.Request) {
	if s.mood == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Mood analysis is not configured"))
		return
	}
	var req models.AnalyzeMoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.analyzeMoodHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	user := userID(r, req.UserID)

	entry, err := s.mood.Record(r.Context(), user, req.Text)
	if err != nil {
		status := statusForError(err)
		slog.Warn("Server.analyzeMoodHandler: analysis failed", "error", err, "userID", user, "status", status)
		msg := err.Error()
		switch status {
		case http.StatusBadGateway:
			msg = "Analysis failed. Please try again."
		case http.StatusInternalServerError:
			msg = "Failed to save mood entry"
		}
		writeJSONResponse(w, status, models.Error(msg))
		return
	}

	result := analyzeMoodResult{
		Entry:      entry,
		Sentiment:  mood.DescribeSentiment(entry.Analysis.Polarity),
		Confidence: mood.ConfidencePercent(entry.Analysis.Subjectivity),
	}
	if h, err := s.mood.History(user); err == nil {
		result.Stats = h.Stats()
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) moodHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if s.mood == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Mood analysis is not configured"))
		return
	}
	user := userID(r, "")
	h, err := s.mood.History(user)
	if err != nil {
		slog.Error("Server.moodHistoryHandler: failed to load history", "error", err, "userID", user)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch mood history"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(h.Response()))
}
