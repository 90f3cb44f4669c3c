// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the tradepost TUI: message
// frames, the loading spinner, the error banner, the status bar, and the
// price history chart.
package components
