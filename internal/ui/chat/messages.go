// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat view:
//   - Streaming: stream start, completion, errors
//   - Item references: background resolution updates
//   - Models: provider model listings
//   - Conversation: save/export confirmations
//   - Market: price history and gold chart data
package chat

import (
	"time"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that a stream session has been launched.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamDoneMsg signals a completed response with trailing metadata.
type StreamDoneMsg struct {
	MessageID string
	Text      string
	Provider  string
	Model     string
	Meta      *model.ResponseMeta
}

// StreamErrorMsg signals an error frame or transport failure mid-stream.
type StreamErrorMsg struct {
	MessageID string
	Err       error
}

// StreamTickMsg drives buffered token flushes at a capped frame rate.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// ITEM REFERENCE MESSAGES
// =============================================================================

// RefsUpdatedMsg signals that background item resolution landed new data
// and the viewport should re-render.
type RefsUpdatedMsg struct{}

// =============================================================================
// MODEL PICKER MESSAGES
// =============================================================================

// ModelsLoadedMsg delivers the backend's local model list.
type ModelsLoadedMsg struct {
	Models []backend.ModelInfo
	Err    error
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationSavedMsg confirms a snapshot save.
type ConversationSavedMsg struct {
	Path string
	Err  error
}

// ExportedMsg confirms a conversation export.
type ExportedMsg struct {
	Path string
	Err  error
}

// =============================================================================
// MARKET MESSAGES
// =============================================================================

// HistoryLoadedMsg delivers a price history series for the chart view.
type HistoryLoadedMsg struct {
	ItemID string
	City   string
	Points []backend.HistoryPoint
	Err    error
}

// GoldLoadedMsg delivers the gold price series.
type GoldLoadedMsg struct {
	Points []backend.GoldPoint
	Err    error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a hot-reloaded configuration from the file
// watcher into the running model.
type ConfigReloadedMsg struct {
	Config *config.Config
}
