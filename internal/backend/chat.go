// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"

	"github.com/seralin/tradepost-tui/internal/model"
)

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatMessage is one message of the outbound conversation payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Stream   bool           `json:"stream"`
	Messages []ChatMessage  `json:"messages"`
	APIKey   string         `json:"api_key,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// ChatResponse is the non-streaming chat result.
type ChatResponse struct {
	Text     string              `json:"text"`
	Provider string              `json:"provider,omitempty"`
	Model    string              `json:"model,omitempty"`
	Meta     *model.ResponseMeta `json:"_meta,omitempty"`
}

// =============================================================================
// ONE-SHOT CHAT
// =============================================================================

// Chat performs a blocking, non-streaming chat completion.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	var resp ChatResponse
	if err := c.postJSON(ctx, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MessagesFromConversation converts stored messages into the outbound wire
// shape, skipping in-progress and empty messages.
func MessagesFromConversation(conv *model.Conversation) []ChatMessage {
	out := make([]ChatMessage, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		if msg.IsStreaming || msg.IsEmpty() {
			continue
		}
		out = append(out, ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return out
}
