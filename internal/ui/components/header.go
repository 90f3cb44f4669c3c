// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the title bar showing the app name and the active provider/model.
type Header struct {
	Title    string
	Provider string
	Model    string
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a Header with defaults.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "tradepost",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetProvider updates the provider/model shown in the header.
func (h *Header) SetProvider(provider, model string) {
	h.Provider = provider
	h.Model = model
}

// View renders the boxed header.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}
	innerWidth := width - 6

	brand := h.theme.HeaderTitle.Render("< " + h.Title + " >")

	var parts []string
	if h.Provider != "" {
		label := h.Provider
		if h.Model != "" {
			label += "/" + h.Model
		}
		parts = append(parts, label)
	}
	parts = append(parts, "Albion market assistant")
	subtitle := h.theme.HeaderSubtitle.Render(strings.Join(parts, "  "))

	brandLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Render(brand)
	subtitleLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, brandLine, subtitleLine)
	return h.theme.Header.Width(width).Render(content)
}

// ViewCompact renders a single-line header for narrow terminals.
func (h *Header) ViewCompact() string {
	parts := []string{h.theme.HeaderTitle.Render("<" + h.Title + ">")}
	if h.Provider != "" {
		label := h.Provider
		if h.Model != "" {
			label += "/" + h.Model
		}
		parts = append(parts, h.theme.HeaderSubtitle.Render(label))
	}
	sep := h.theme.HeaderSubtitle.Render(" | ")
	return strings.Join(parts, sep)
}
