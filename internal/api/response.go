package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/mood"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/payment"
)

// maxRequestBody bounds decoded request bodies.
const maxRequestBody = 1 << 20

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal first so encoding errors surface before headers are written
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
}

// statusForError maps service errors to HTTP status codes. Validation
// errors are the caller's fault and remote dependency failures are a bad
// gateway; anything else, local storage included, is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, mood.ErrEmptyEntry),
		errors.Is(err, mood.ErrEntryTooLong),
		errors.Is(err, payment.ErrMissingEmail),
		errors.Is(err, payment.ErrUnknownPlan):
		return http.StatusBadRequest
	case errors.Is(err, mood.ErrAnalysis),
		errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
