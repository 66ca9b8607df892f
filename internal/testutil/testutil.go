// Package testutil provides common test utilities and helpers for MindVibe tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/api"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/onboarding"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

// T is the subset of testing.TB used by the assertion helpers.
type T interface {
	Helper()
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

var _ T = (*testing.T)(nil)

// Envelope mirrors models.APIResponse with a typed result.
type Envelope[R any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  R      `json:"result"`
}

// NewTestServer creates a test API server with in-memory dependencies.
func NewTestServer(t *testing.T, opts ...api.Option) (*api.Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	return NewTestServerWithStore(t, st, opts...), st
}

// NewTestServerWithStore creates a test API server whose profiles are saved to st.
func NewTestServerWithStore(t *testing.T, st store.Store, opts ...api.Option) *api.Server {
	t.Helper()
	srv, err := api.NewServer(onboarding.NewService(st), opts...)
	if err != nil {
		t.Fatalf("failed to create test server: %v", err)
	}
	return srv
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
		return nil
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Errorf("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t T, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
			return nil
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoJSON sends a raw JSON body to path and returns the recorded response.
func DoJSON(t T, srv *api.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return Serve(srv, req)
}

// DecodeEnvelope decodes a response envelope whose result has type R.
func DecodeEnvelope[R any](t T, rr *httptest.ResponseRecorder) Envelope[R] {
	t.Helper()
	var env Envelope[R]
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response envelope: %v", err)
	}
	return env
}

// Serve runs req through the server and returns the recorded response.
func Serve(srv *api.Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

// AssertResponseCount validates the number of responses in store matches expected.
func AssertResponseCount(t T, st store.Store, expected int, context string) {
	t.Helper()
	responses, err := st.GetResponses()
	if err != nil {
		t.Fatalf("%s: failed to get responses: %v", context, err)
		return
	}
	if len(responses) != expected {
		t.Errorf("%s: expected %d responses, got %d", context, expected, len(responses))
	}
}

// SeedTestData adds sample receipts, responses and mood entries to the store.
func SeedTestData(t T, st store.Store) {
	t.Helper()

	testReceipts := []models.Receipt{
		{To: "254700000001", Status: models.MessageStatusSent, Time: 1},
		{To: "254700000002", Status: models.MessageStatusDelivered, Time: 2},
	}
	for _, receipt := range testReceipts {
		if err := st.AddReceipt(receipt); err != nil {
			t.Fatalf("failed to add test receipt: %v", err)
		}
	}

	testResponses := []models.Response{
		{From: "254700000001", Body: "test response 1", Time: 10},
		{From: "254700000002", Body: "test response 2", Time: 20},
	}
	for _, response := range testResponses {
		if err := st.AddResponse(response); err != nil {
			t.Fatalf("failed to add test response: %v", err)
		}
	}

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, score := range []float64{40, 65} {
		entry := models.MoodEntry{
			UserID:    "u1",
			Text:      "seeded entry",
			Analysis:  models.MoodAnalysis{MoodScore: score, MoodCategory: "Okay"},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := st.AddMoodEntry(entry); err != nil {
			t.Fatalf("failed to add test mood entry: %v", err)
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
