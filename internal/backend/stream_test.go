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
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_ReadEvent(t *testing.T) {
	input := "data: {\"type\":\"delta\",\"text\":\"Hi\"}\n\n" +
		"data: {\"type\":\"done\",\"text\":\"Hi\"}\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	first, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if !strings.Contains(string(first), `"delta"`) {
		t.Errorf("first frame = %s", first)
	}

	second, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if !strings.Contains(string(second), `"done"`) {
		t.Errorf("second frame = %s", second)
	}
}

func TestSSEReader_CRLFAndComments(t *testing.T) {
	input := ": keepalive\r\n" +
		"id: 7\r\n" +
		"data: {\"type\":\"delta\",\"text\":\"x\"}\r\n" +
		"\r\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != `{"type":"delta","text":"x"}` {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_TrailingFrameWithoutBlankLine(t *testing.T) {
	reader := NewSSEReader(strings.NewReader("data: {\"type\":\"done\"}\n"))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != `{"type":"done"}` {
		t.Errorf("data = %q", data)
	}
}

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			w.Write([]byte("data: " + frame + "\n\n"))
		}
	}))
}

func TestChatStream_DeltaThenDone(t *testing.T) {
	server := sseServer(t,
		`{"type":"delta","text":"Hello"}`,
		`{"type":"delta","text":", world"}`,
		`{"type":"done","text":"Hello, world","provider":"ollama","model":"qwen2.5:14b","_meta":{"tool_calls":[{"tool":"resolve_item","success":true}]}}`,
	)
	defer server.Close()

	client := New(server.URL)
	var events []StreamEvent
	err := client.ChatStream(context.Background(), ChatRequest{
		Provider: "ollama",
		Model:    "qwen2.5:14b",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}, func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Type != EventDelta || events[0].Text != "Hello" {
		t.Errorf("first event = %+v", events[0])
	}
	last := events[2]
	if last.Type != EventDone {
		t.Fatalf("last event type = %q", last.Type)
	}
	if last.Text != "Hello, world" || last.Provider != "ollama" {
		t.Errorf("done event = %+v", last)
	}
	if !last.Meta.HasActivity() {
		t.Error("done event lost tool activity")
	}
}

func TestChatStream_ErrorFrameHaltsStream(t *testing.T) {
	server := sseServer(t,
		`{"type":"delta","text":"par"}`,
		`{"type":"error","message":"provider exploded"}`,
		`{"type":"delta","text":"never seen"}`,
	)
	defer server.Close()

	var events []StreamEvent
	err := New(server.URL).ChatStream(context.Background(), ChatRequest{}, func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (stream must halt on error frame)", len(events))
	}
	if events[1].Type != EventError || events[1].Message != "provider exploded" {
		t.Errorf("error event = %+v", events[1])
	}
}

func TestChatStream_TruncatedStream(t *testing.T) {
	server := sseServer(t, `{"type":"delta","text":"partial"}`)
	defer server.Close()

	err := New(server.URL).ChatStream(context.Background(), ChatRequest{}, func(StreamEvent) {})
	if !errors.Is(err, ErrStreamTruncated) {
		t.Errorf("err = %v, want ErrStreamTruncated", err)
	}
}

func TestChatStream_SkipsMalformedFrames(t *testing.T) {
	server := sseServer(t,
		`{not json`,
		`{"type":"delta","text":"ok"}`,
		`{"type":"done","text":"ok"}`,
	)
	defer server.Close()

	var events []StreamEvent
	err := New(server.URL).ChatStream(context.Background(), ChatRequest{}, func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2 (malformed frame must be skipped)", len(events))
	}
}

func TestChatStream_OneShotFallback(t *testing.T) {
	// Backend that ignores stream:true and answers with plain JSON.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"full answer","provider":"openai","model":"gpt-4o"}`))
	}))
	defer server.Close()

	var events []StreamEvent
	err := New(server.URL).ChatStream(context.Background(), ChatRequest{}, func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want synthesized delta+done", len(events))
	}
	if events[0].Type != EventDelta || events[0].Text != "full answer" {
		t.Errorf("synthesized delta = %+v", events[0])
	}
	if events[1].Type != EventDone || events[1].Model != "gpt-4o" {
		t.Errorf("synthesized done = %+v", events[1])
	}
}

func TestChatStream_ErrorStatusSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"ollama is down"}`))
	}))
	defer server.Close()

	err := New(server.URL).ChatStream(context.Background(), ChatRequest{}, func(StreamEvent) {
		t.Error("handler must not be called on HTTP error")
	})

	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if berr.Status != http.StatusBadGateway || berr.Message != "ollama is down" {
		t.Errorf("backend error = %+v", berr)
	}
}

func TestChatStream_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"type\":\"delta\",\"text\":\"x\"}\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release // hold the stream open
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- New(server.URL).ChatStream(ctx, ChatRequest{}, func(ev StreamEvent) {
			if ev.Type == EventDelta {
				cancel()
			}
		})
	}()

	err := <-errCh
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}

func TestChatStream_Unconfigured(t *testing.T) {
	err := New("").ChatStream(context.Background(), ChatRequest{}, func(StreamEvent) {})
	if !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("err = %v, want ErrNoBaseURL", err)
	}
}
