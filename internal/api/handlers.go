package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

type textAnswerRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type choiceAnswerRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	// Index of the chosen option. Value decides the selection; a given
	// Index must agree with it.
	Index *int `json:"index,omitempty"`
}

// errChoiceMismatch rejects a choice whose index does not point at its value.
var errChoiceMismatch = errors.New("index does not match value")

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]interface{}{
		"status":          "healthy",
		"message":         "MindVibe backend is running",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"active_sessions": s.sessions.count(),
		"mood_analysis":   s.mood != nil,
		"payments":        s.payments != nil,
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := s.sessions.create(s.questions, s.profiles)
	if errors.Is(err, errTooManySessions) {
		slog.Warn("Server.createSessionHandler: session limit reached", "limit", s.sessions.max)
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Too many active onboarding sessions, please try again later"))
		return
	}
	if err != nil {
		slog.Error("Server.createSessionHandler: failed to create session", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start onboarding"))
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	slog.Info("Server.createSessionHandler: onboarding session started", "sessionID", ws.id)
	writeJSONResponse(w, http.StatusCreated, models.Success(ws.view(true)))
}

// withSession resolves the {id} URL parameter and runs fn with the
// session locked. fn reports whether its action was accepted; an error
// rejects the request with 400.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(ws *webSession) (bool, error)) {
	id := chi.URLParam(r, "id")
	ws, ok := s.sessions.get(id)
	if !ok {
		slog.Warn("Server.withSession: unknown session", "sessionID", id, "path", r.URL.Path)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Onboarding session not found"))
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	accepted, err := fn(ws)
	if err != nil {
		slog.Warn("Server.withSession: request rejected", "sessionID", id, "path", r.URL.Path, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(ws.view(accepted)))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ws *webSession) (bool, error) { return true, nil })
}

func (s *Server) textAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req textAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.textAnswerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Key == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: key"))
		return
	}
	s.withSession(w, r, func(ws *webSession) (bool, error) {
		return ws.controller.RecordTextAnswer(req.Key, req.Value), nil
	})
}

func (s *Server) choiceAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req choiceAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.choiceAnswerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Key == "" || req.Value == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required fields: key and value"))
		return
	}
	s.withSession(w, r, func(ws *webSession) (bool, error) {
		q := ws.controller.Current()
		index := -1
		if q.Key == req.Key {
			index = q.OptionIndex(req.Value)
		}
		if req.Index != nil && q.Key == req.Key && *req.Index != index {
			return false, fmt.Errorf("%w: option %d is not %q", errChoiceMismatch, *req.Index, req.Value)
		}
		return ws.controller.RecordChoice(req.Key, req.Value, index), nil
	})
}

func (s *Server) advanceHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ws *webSession) (bool, error) { return ws.controller.Advance(), nil })
}

func (s *Server) retreatHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ws *webSession) (bool, error) { return ws.controller.Retreat(), nil })
}

func (s *Server) completeHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ws, ok := s.sessions.get(id)
	if !ok {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Onboarding session not found"))
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	completed, err := ws.controller.Complete(r.Context())
	if err != nil {
		slog.Error("Server.completeHandler: completion failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to complete onboarding, please try again"))
		return
	}
	if completed {
		slog.Info("Server.completeHandler: onboarding completed", "sessionID", id, "profileID", ws.controller.Outcome().Reference)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(ws.view(completed)))
}

func (s *Server) saveOnboardingHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OnboardingSaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.saveOnboardingHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	profile, err := s.profiles.SaveProfile(r.Context(), req)
	if err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save onboarding data"))
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Onboarding data saved successfully", profile))
}
