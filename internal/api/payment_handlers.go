package api

import (
	"log/slog"
	"net/http"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/payment"
)

func (s *Server) plansHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(payment.Plans()))
}

func (s *Server) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	if s.payments == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Payments are not configured"))
		return
	}
	var req models.SubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.createSubscriptionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	url, err := s.payments.CreateSubscription(r.Context(), req.Email, req.Plan)
	if err != nil {
		status := statusForError(err)
		msg := err.Error()
		if status != http.StatusBadRequest {
			msg = "Payment initialization failed. Please try again."
		}
		writeJSONResponse(w, status, models.Error(msg))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(models.SubscriptionResponse{PaymentURL: url}))
}
