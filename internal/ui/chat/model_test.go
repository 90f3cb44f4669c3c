// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/model"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

func testModel(t *testing.T) Model {
	t.Helper()
	m := New(styles.NewTheme(), Options{
		Client: backend.New("http://127.0.0.1:1"),
		Config: config.Default(),
	})
	m.setSize(100, 40)
	return m
}

// startTurn puts the model into the sending state with a streaming
// assistant message and a live session, the way submitInput does.
func startTurn(m *Model) *model.Message {
	m.conversation.AddUserMessage("what is a T4 bag worth?")
	asst := m.conversation.AddAssistantMessage()
	m.session = &streamSession{messageID: asst.ID}
	m.state = StateSending
	return asst
}

func TestDeltaWithoutDoneKeepsStreamingState(t *testing.T) {
	m := testModel(t)
	asst := startTurn(&m)

	m.streamBuffer.Write("The T4_BAG ")
	m.streamBuffer.Write("currently sells")

	updated, _ := m.handleStreamTick()
	m = updated.(Model)

	if m.State() != StateStreaming {
		t.Errorf("state = %v, want StateStreaming", m.State())
	}
	if !m.Busy() {
		t.Error("model should still be busy without a done event")
	}
	if !asst.IsStreaming {
		t.Error("assistant message should still be streaming")
	}
	if asst.Content != "The T4_BAG currently sells" {
		t.Errorf("content = %q", asst.Content)
	}
}

func TestDoneFinalizesAndReturnsToIdle(t *testing.T) {
	m := testModel(t)
	asst := startTurn(&m)
	m.streamBuffer.Write("partial")

	meta := &model.ResponseMeta{
		ToolCalls: []model.ToolCallRecord{{Tool: "get_prices", Success: true}},
	}
	updated, _ := m.Update(StreamDoneMsg{
		MessageID: asst.ID,
		Text:      "partial plus the rest",
		Provider:  "ollama",
		Model:     "llama3",
		Meta:      meta,
	})
	m = updated.(Model)

	if m.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle", m.State())
	}
	if asst.IsStreaming {
		t.Error("assistant message should be finalized")
	}
	// The done frame's full text is authoritative over accumulated deltas.
	if asst.Content != "partial plus the rest" {
		t.Errorf("content = %q", asst.Content)
	}
	if asst.Meta == nil || len(asst.Meta.ToolCalls) != 1 {
		t.Error("metadata should be attached on done")
	}
	if asst.Provider != "ollama" || asst.Model != "llama3" {
		t.Errorf("provenance = %s/%s", asst.Provider, asst.Model)
	}
}

func TestStreamErrorDropsEmptyAssistantMessage(t *testing.T) {
	m := testModel(t)
	asst := startTurn(&m)
	before := len(m.conversation.Messages)

	updated, _ := m.Update(StreamErrorMsg{
		MessageID: asst.ID,
		Err:       errors.New("provider exploded"),
	})
	m = updated.(Model)

	if m.State() != StateError {
		t.Errorf("state = %v, want StateError", m.State())
	}
	if len(m.conversation.Messages) != before-1 {
		t.Error("empty assistant message should be dropped on error")
	}
	if !m.errBanner.Visible() {
		t.Error("error banner should be showing")
	}
}

func TestStreamErrorKeepsPartialContent(t *testing.T) {
	m := testModel(t)
	asst := startTurn(&m)
	m.streamBuffer.Write("partial answer")

	updated, _ := m.Update(StreamErrorMsg{
		MessageID: asst.ID,
		Err:       errors.New("connection reset"),
	})
	m = updated.(Model)

	if asst.Content != "partial answer" {
		t.Errorf("content = %q, want partial text preserved", asst.Content)
	}
	if asst.IsStreaming {
		t.Error("partial message should be finalized, not left streaming")
	}
}

func TestCancelReturnsToIdleWithoutError(t *testing.T) {
	m := testModel(t)
	asst := startTurn(&m)

	updated, _ := m.Update(StreamErrorMsg{
		MessageID: asst.ID,
		Err:       context.Canceled,
	})
	m = updated.(Model)

	if m.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle after cancel", m.State())
	}
	if m.errBanner.Visible() {
		t.Error("user cancel should not surface an error")
	}
}

func TestStaleStreamErrorLeavesFreshSendAlone(t *testing.T) {
	m := testModel(t)

	// First turn gets cancelled by /new; its terminal event is still in
	// flight when the next send starts.
	stale := startTurn(&m)
	staleID := stale.ID
	updated, _ := m.handleCommand("/new")
	m = updated.(Model)

	asst := startTurn(&m)
	before := len(m.conversation.Messages)

	updated, _ = m.Update(StreamErrorMsg{
		MessageID: staleID,
		Err:       context.Canceled,
	})
	m = updated.(Model)

	if m.State() != StateSending {
		t.Errorf("state = %v, want StateSending after stale error", m.State())
	}
	if !m.Busy() {
		t.Error("fresh send should still be busy")
	}
	if len(m.conversation.Messages) != before {
		t.Errorf("message count = %d, want %d", len(m.conversation.Messages), before)
	}
	if !asst.IsStreaming {
		t.Error("fresh assistant message should still be streaming")
	}
}

func TestStreamErrorForUnknownSessionIgnored(t *testing.T) {
	m := testModel(t)
	startTurn(&m)

	updated, _ := m.Update(StreamErrorMsg{
		MessageID: "not-the-current-stream",
		Err:       errors.New("late failure"),
	})
	m = updated.(Model)

	if m.State() != StateSending {
		t.Errorf("state = %v, want StateSending", m.State())
	}
	if m.errBanner.Visible() {
		t.Error("mismatched error must not surface a banner")
	}
}

func TestChatMessagesSkipSystemAndStreaming(t *testing.T) {
	conv := model.NewConversation("ollama", "llama3")
	conv.AddUserMessage("hello")
	conv.AddSystemMessage("notice")
	asst := conv.AddAssistantMessage()
	asst.AppendDelta("in progress")

	msgs := chatMessages(conv)
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
}

func TestHandleCommandUnknown(t *testing.T) {
	m := testModel(t)
	updated, _ := m.handleCommand("/bogus")
	m = updated.(Model)

	last := m.conversation.LastMessage()
	if last == nil || last.Role != model.RoleSystem {
		t.Fatal("unknown command should append a system notice")
	}
}

func TestProviderCommandRejectsUnknown(t *testing.T) {
	m := testModel(t)
	updated, _ := m.handleCommand("/provider aol")
	m = updated.(Model)

	if m.conversation.Provider == "aol" {
		t.Error("invalid provider should not be applied")
	}
}

func TestProviderCommandSwitches(t *testing.T) {
	m := testModel(t)
	updated, _ := m.handleCommand("/provider anthropic")
	m = updated.(Model)

	if m.conversation.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", m.conversation.Provider)
	}
}
