// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
)

// Providers supported by the backend. The backend validates the provider on
// every chat request; this list only drives the picker UI.
var Providers = []string{"ollama", "openai", "anthropic", "gemini"}

// ModelInfo describes one locally available Ollama model.
type ModelInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size,omitempty"`
	Thinking bool   `json:"thinking,omitempty"`
}

// modelsResponse is the wire shape of GET /ollama/models.
type modelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ListOllamaModels returns the models the backend's Ollama host has pulled.
func (c *Client) ListOllamaModels(ctx context.Context) ([]ModelInfo, error) {
	var resp modelsResponse
	if err := c.getJSON(ctx, "/ollama/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}
