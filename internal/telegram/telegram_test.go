package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(WithToken("123:abc"), WithServerURL(srv.URL), WithSkipGetMe())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.SendMessage(context.Background(), "42", "hello there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/sendMessage") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotBody, "hello there") || !strings.Contains(gotBody, "42") {
		t.Errorf("request body missing text or chat id: %q", gotBody)
	}
}

func TestSendMessageRejectsNonNumericChat(t *testing.T) {
	c, err := NewClient(WithToken("123:abc"), WithServerURL("http://127.0.0.1:1"), WithSkipGetMe())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.SendMessage(context.Background(), "not-a-chat", "hi"); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}
