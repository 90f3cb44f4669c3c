// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
)

func TestMessage_AppendDelta(t *testing.T) {
	msg := NewAssistantMessage("ollama", "qwen2.5:14b")

	msg.AppendDelta("Hello")
	msg.AppendDelta(", world")

	if msg.Content != "Hello, world" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello, world")
	}
	if !msg.IsStreaming {
		t.Error("message should still be streaming")
	}
}

func TestMessage_AppendDeltaAfterFinalize(t *testing.T) {
	msg := NewAssistantMessage("ollama", "qwen2.5:14b")
	msg.AppendDelta("done")
	msg.Finalize("", nil)

	msg.AppendDelta("ignored")
	if msg.Content != "done" {
		t.Errorf("finalized message mutated: %q", msg.Content)
	}
}

func TestMessage_FinalizePrefersDoneText(t *testing.T) {
	msg := NewAssistantMessage("anthropic", "claude-sonnet")
	msg.AppendDelta("partial")

	meta := &ResponseMeta{
		ToolCalls: []ToolCallRecord{{Tool: "resolve_item", Success: true}},
		Rounds:    []RoundTrace{{Round: 1, Tool: "resolve_item", Outcome: "ok"}},
	}
	msg.Finalize("complete text", meta)

	if msg.Content != "complete text" {
		t.Errorf("Content = %q, want done-event text", msg.Content)
	}
	if msg.IsStreaming {
		t.Error("message should no longer be streaming")
	}
	if !msg.Meta.HasActivity() {
		t.Error("tool activity lost on finalize")
	}
}

func TestConversation_StreamingMessage(t *testing.T) {
	conv := NewConversation("ollama", "qwen2.5:14b")

	if conv.StreamingMessage() != nil {
		t.Error("empty conversation should have no streaming message")
	}

	conv.AddUserMessage("what is T4_BAG worth?")
	if conv.StreamingMessage() != nil {
		t.Error("user message must not be reported as streaming")
	}

	asst := conv.AddAssistantMessage()
	if conv.StreamingMessage() != asst {
		t.Error("in-progress assistant message not found")
	}
	if asst.Provider != "ollama" || asst.Model != "qwen2.5:14b" {
		t.Errorf("assistant message tags = %q/%q", asst.Provider, asst.Model)
	}

	asst.Finalize("answer", nil)
	if conv.StreamingMessage() != nil {
		t.Error("finalized message still reported as streaming")
	}
}

func TestConversation_DropStreamingMessage(t *testing.T) {
	conv := NewConversation("ollama", "qwen2.5:14b")
	conv.AddUserMessage("hi")
	conv.AddAssistantMessage()

	conv.DropStreamingMessage()
	if len(conv.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(conv.Messages))
	}

	// Dropping again is a no-op.
	conv.DropStreamingMessage()
	if len(conv.Messages) != 1 {
		t.Error("DropStreamingMessage removed a non-streaming message")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation("ollama", "qwen2.5:14b")
	conv.AddUserMessage("How much does an Adept's Bag cost in Caerleon right now?")

	if conv.Title == "" {
		t.Fatal("expected derived title")
	}
	if len([]rune(conv.Title)) > 50 {
		t.Errorf("title too long: %q", conv.Title)
	}
}

func TestConversation_Prune(t *testing.T) {
	conv := NewConversation("ollama", "qwen2.5:14b")
	for i := 0; i < MaxMessages+10; i++ {
		conv.AddUserMessage("msg")
	}
	if len(conv.Messages) != MaxMessages {
		t.Errorf("len(Messages) = %d, want %d", len(conv.Messages), MaxMessages)
	}
}
