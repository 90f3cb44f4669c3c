// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages kept in a conversation.
// When exceeded, the oldest messages are pruned to prevent unbounded growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered chat history with metadata.
// Insertion order is chronological order; messages are never reordered.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`

	// Selected provider/model for new sends
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation(provider, model string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
		Provider:  provider,
		Model:     model,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an in-progress assistant message
// tagged with the conversation's current provider/model selection.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage(c.Provider, c.Model)
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and appends a system notice.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewMessage(RoleSystem, content)
	c.AddMessage(msg)
	return msg
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// StreamingMessage returns the single in-progress assistant message, or nil.
// Only the latest message can be streaming.
func (c *Conversation) StreamingMessage() *Message {
	last := c.LastMessage()
	if last != nil && last.Role == RoleAssistant && last.IsStreaming {
		return last
	}
	return nil
}

// DropStreamingMessage removes a trailing in-progress assistant message,
// leaving the conversation in its last consistent state. Used when a send
// fails before any content arrived.
func (c *Conversation) DropStreamingMessage() {
	if c.StreamingMessage() != nil {
		c.Messages = c.Messages[:len(c.Messages)-1]
	}
}

// IsEmpty reports whether the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Preview returns a short preview of the first user message.
func (c *Conversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(80)
		}
	}
	return ""
}

// updateTitle derives the title from the first user message.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && !msg.IsEmpty() {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// pruneOldMessages drops the oldest messages when over the limit.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	excess := len(c.Messages) - MaxMessages
	c.Messages = append([]*Message(nil), c.Messages[excess:]...)
}
