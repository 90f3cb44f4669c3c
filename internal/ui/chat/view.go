// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the chat layout: header, conversation viewport, spinner or
// error banner, input box, status bar.
func (m Model) View() string {
	if !m.ready {
		return "Starting tradepost..."
	}

	var sections []string

	if m.width < 60 {
		sections = append(sections, m.header.ViewCompact())
	} else {
		sections = append(sections, m.header.View())
	}

	sections = append(sections, m.viewport.View())

	if m.spin.Active() {
		sections = append(sections, m.spin.View())
	}
	if m.errBanner.Visible() {
		sections = append(sections, m.errBanner.View())
	}

	sections = append(sections, m.renderInput())
	sections = append(sections, m.statusBar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderInput draws the input line, dimmed while a stream is in flight.
func (m Model) renderInput() string {
	view := m.input.View()
	if m.Busy() {
		return m.theme.InputPlaceholder.Render(strings.TrimRight(view, " "))
	}
	return m.theme.InputContainer.Render(view)
}
