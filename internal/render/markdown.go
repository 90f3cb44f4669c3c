// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown styles annotated markdown for the terminal at the given wrap
// width. The renderer is rebuilt when the width changes; rendering failures
// fall back to the raw source so output is never lost.
type Markdown struct {
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown returns a terminal markdown renderer wrapping at width.
func NewMarkdown(width int) *Markdown {
	m := &Markdown{}
	m.SetWidth(width)
	return m
}

// SetWidth rebuilds the underlying renderer for a new wrap width.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if m.renderer != nil && m.width == width {
		return
	}
	m.width = width
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Render styles markdown for the terminal. Returns the source unchanged if
// the renderer is unavailable or fails.
func (m *Markdown) Render(source string) string {
	if m.renderer == nil {
		return source
	}
	out, err := m.renderer.Render(source)
	if err != nil {
		return source
	}
	return strings.TrimRight(out, "\n") + "\n"
}
