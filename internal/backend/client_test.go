// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seralin/tradepost-tui/internal/model"
)

func TestErrorFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"fastapi detail", 400, `{"detail":"Query parameter 'ids' is required"}`, "Query parameter 'ids' is required"},
		{"plain text body verbatim", 500, "something broke", "something broke"},
		{"json without detail", 502, `{"error":"x"}`, `{"error":"x"}`},
		{"empty body", 503, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errorFromResponse(tt.status, []byte(tt.body))
			var berr *Error
			if !errors.As(err, &berr) {
				t.Fatalf("err = %T, want *Error", err)
			}
			if berr.Status != tt.status {
				t.Errorf("Status = %d, want %d", berr.Status, tt.status)
			}
			if berr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", berr.Message, tt.wantMsg)
			}
		})
	}
}

func TestChat_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if !strings.Contains(readBody(t, r), `"stream":false`) {
			t.Error("Chat must force stream:false")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"42 silver","provider":"ollama","model":"qwen2.5:14b"}`))
	}))
	defer server.Close()

	resp, err := New(server.URL).Chat(context.Background(), ChatRequest{
		Provider: "ollama",
		Model:    "qwen2.5:14b",
		Stream:   true, // must be overridden
		Messages: []ChatMessage{{Role: "user", Content: "price of T4_BAG?"}},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Text != "42 silver" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestMessagesFromConversation(t *testing.T) {
	conv := model.NewConversation("ollama", "qwen2.5:14b")
	conv.AddUserMessage("hello")
	asst := conv.AddAssistantMessage()
	asst.AppendDelta("hi")
	asst.Finalize("", nil)
	conv.AddUserMessage("next question")
	conv.AddAssistantMessage() // in-progress, must be excluded

	msgs := MessagesFromConversation(conv)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hi" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}
