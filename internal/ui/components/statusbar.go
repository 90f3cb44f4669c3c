// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status is the application state shown at the left of the bar.
type Status int

const (
	StatusReady Status = iota
	StatusSending
	StatusStreaming
	StatusResolving
	StatusError
)

// String returns the display label for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusSending:
		return "Sending..."
	case StatusStreaming:
		return "Streaming..."
	case StatusResolving:
		return "Resolving items..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortcut is a key binding with its description.
type shortcut struct {
	key  string
	desc string
}

var defaultShortcuts = []shortcut{
	{"enter", "send"},
	{"esc", "cancel"},
	{"ctrl+e", "export"},
	{"ctrl+n", "new"},
	{"ctrl+c", "quit"},
}

// StatusBar is the bottom bar showing connection state, message count
// and keyboard shortcuts.
type StatusBar struct {
	Status        Status
	Provider      string
	MessageCount  int
	PendingItems  int
	Width         int
	ShowShortcuts bool
	theme         *styles.Theme
}

// NewStatusBar creates a StatusBar with defaults.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the displayed state.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetCounts updates the message and pending item-lookup counters.
func (s *StatusBar) SetCounts(messages, pendingItems int) {
	s.MessageCount = messages
	s.PendingItems = pendingItems
}

// View renders the full-width bar.
func (s *StatusBar) View() string {
	statusStyle := s.theme.StatusOK
	switch s.Status {
	case StatusSending, StatusStreaming, StatusResolving:
		statusStyle = s.theme.StatusBusy
	case StatusError:
		statusStyle = s.theme.StatusError
	}

	left := statusStyle.Render(s.Status.String())
	if s.Provider != "" {
		left += s.theme.ShortcutDesc.Render("  " + s.Provider)
	}
	if s.MessageCount > 0 {
		left += s.theme.ShortcutDesc.Render(fmt.Sprintf("  %d msgs", s.MessageCount))
	}
	if s.PendingItems > 0 {
		left += s.theme.StatusBusy.Render(fmt.Sprintf("  %d items pending", s.PendingItems))
	}

	right := ""
	if s.ShowShortcuts {
		var parts []string
		for _, sc := range defaultShortcuts {
			parts = append(parts,
				s.theme.ShortcutKey.Render(sc.key)+s.theme.ShortcutDesc.Render(" "+sc.desc))
		}
		right = strings.Join(parts, s.theme.ShortcutDesc.Render("  "))
	}

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Not enough room for shortcuts, drop them.
		right = ""
		gap = s.Width - lipgloss.Width(left) - 2
		if gap < 0 {
			gap = 0
			left = truncate.String(left, uint(s.Width))
		}
	}

	line := left + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.Width(s.Width).Render(line)
}
