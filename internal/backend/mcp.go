// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
)

// =============================================================================
// MCP TOOL CALLS
// =============================================================================

// toolCallRequest is the payload for POST /mcp/tools/call.
type toolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ResolveMatch is one candidate returned by the resolve_item tool.
type ResolveMatch struct {
	UniqueName  string  `json:"unique_name"`
	DisplayName string  `json:"display_name"`
	Tier        int     `json:"tier"`
	Enchantment int     `json:"enchantment"`
	Score       float64 `json:"score"`
}

// resolveResult is the structured content of a resolve_item call.
type resolveResult struct {
	Resolved   bool           `json:"resolved"`
	Query      string         `json:"query"`
	MatchCount int            `json:"match_count"`
	Matches    []ResolveMatch `json:"matches"`
	Message    string         `json:"message,omitempty"`
}

// toolCallResponse is the MCP envelope around a tool result.
type toolCallResponse struct {
	IsError           bool          `json:"isError"`
	StructuredContent resolveResult `json:"structuredContent"`
}

// ResolveItem resolves a free-form item query (display name, tier shorthand,
// or unique ID) to canonical matches via the backend's resolve_item tool.
// An empty result slice means the backend found nothing; that is not an
// error at this layer.
func (c *Client) ResolveItem(ctx context.Context, query string, limit int) ([]ResolveMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	req := toolCallRequest{
		Name: "resolve_item",
		Arguments: map[string]any{
			"query": query,
			"limit": limit,
		},
	}

	var resp toolCallResponse
	if err := c.postJSON(ctx, "/mcp/tools/call", req, &resp); err != nil {
		return nil, err
	}
	if resp.IsError {
		return nil, fmt.Errorf("resolve_item failed: %s", resp.StructuredContent.Message)
	}
	return resp.StructuredContent.Matches, nil
}
