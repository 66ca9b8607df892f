package messaging

import (
	"context"
	"testing"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/telegram"
)

func TestTelegramService_ValidateRecipient(t *testing.T) {
	svc := NewTelegramService(telegram.NewMockClient())
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"42", "42", false},
		{" -100123 ", "-100123", false},
		{"", "", true},
		{"@someone", "", true},
		{"0", "", true},
	}
	for _, tt := range tests {
		got, err := svc.ValidateAndCanonicalizeRecipient(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTelegramService_SendAndReceive(t *testing.T) {
	mock := telegram.NewMockClient()
	svc := NewTelegramService(mock)
	if err := svc.SendMessage(context.Background(), "42", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent := mock.Sent(); len(sent) != 1 || sent[0].To != "42" {
		t.Errorf("unexpected sent messages %+v", sent)
	}

	svc.handleIncomingMessage(context.Background(), "42", "next", 1700000000)
	resp := <-svc.Responses()
	if resp.From != "42" || resp.Body != "next" || resp.Time != 1700000000 {
		t.Errorf("unexpected response %+v", resp)
	}
}
