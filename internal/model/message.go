// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// RESPONSE METADATA
// =============================================================================

// ToolCallRecord describes one tool invocation made by the backend while
// producing an assistant response. Mirrors the `_meta.tool_calls` entries
// the backend attaches to the final stream event.
type ToolCallRecord struct {
	Type      string         `json:"type,omitempty"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
}

// RoundTrace is one entry of the backend's multi-round tool-loop debug trace.
type RoundTrace struct {
	Round   int    `json:"round,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ResponseMeta is the metadata bag attached to a finalized assistant message:
// tool-call activity plus the backend's per-round trace.
type ResponseMeta struct {
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
	Rounds    []RoundTrace     `json:"rounds,omitempty"`
}

// HasActivity reports whether any tool calls were recorded.
func (m *ResponseMeta) HasActivity() bool {
	return m != nil && len(m.ToolCalls) > 0
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Provenance tags (assistant messages)
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Backend tool activity (assistant messages)
	Meta *ResponseMeta `json:"meta,omitempty"`

	// Streaming state (not persisted).
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming.
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new in-progress assistant message.
func NewAssistantMessage(provider, model string) *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		Provider:    provider,
		Model:       model,
		IsStreaming: true,
	}
}

// AppendDelta adds incremental streamed text to an in-progress message.
// The visible content is rewritten wholesale from the accumulated builder,
// so renderers always see the full text so far.
func (m *Message) AppendDelta(text string) {
	if !m.IsStreaming {
		return
	}
	m.streamContent.WriteString(text)
	m.Content = m.streamContent.String()
}

// Finalize freezes a streaming message, attaching trailing metadata from the
// done event. If the done event carried the complete text, it replaces the
// accumulated deltas (the backend's copy is authoritative).
func (m *Message) Finalize(fullText string, meta *ResponseMeta) {
	if fullText != "" {
		m.Content = fullText
	} else {
		m.Content = m.streamContent.String()
	}
	m.Meta = meta
	m.IsStreaming = false
	m.streamContent.Reset()
}

// Preview returns a single-line truncated preview of the content.
func (m *Message) Preview(maxRunes int) string {
	line := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(line)
	if len(runes) <= maxRunes {
		return line
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// IsEmpty reports whether the message has no content.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}
