// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// ErrorBanner shows a dismissible error above the input area.
type ErrorBanner struct {
	theme   *styles.Theme
	title   string
	message string
	hint    string
	visible bool
	width   int
}

// NewErrorBanner creates a hidden error banner.
func NewErrorBanner(theme *styles.Theme) ErrorBanner {
	return ErrorBanner{theme: theme}
}

// Show displays an error. The message and hint are derived from the error
// type so backend failures come with an actionable suggestion.
func (e *ErrorBanner) Show(err error) {
	if err == nil {
		return
	}
	e.visible = true
	e.title = "Error"
	e.message = err.Error()
	e.hint = ""

	var backendErr *backend.Error
	switch {
	case errors.As(err, &backendErr):
		e.title = "Backend error"
		if backendErr.Status >= 500 {
			e.hint = "The backend hit an internal error; check its logs."
		} else if backendErr.Status == 404 {
			e.hint = "Check that the backend version matches this client."
		}
	case errors.Is(err, backend.ErrNoBaseURL):
		e.title = "Not configured"
		e.hint = "Set backend.base_url in ~/.tradepost/config.toml or TRADEPOST_BACKEND_URL."
	case errors.Is(err, backend.ErrStreamTruncated):
		e.title = "Stream interrupted"
		e.hint = "The reply may be incomplete; send again to retry."
	case strings.Contains(err.Error(), "connection refused"):
		e.title = "Backend unreachable"
		e.hint = "Is the tradepost backend running?"
	}
}

// ShowMessage displays a plain text error without classification.
func (e *ErrorBanner) ShowMessage(title, message string) {
	e.visible = true
	e.title = title
	e.message = message
	e.hint = ""
}

// Dismiss hides the banner.
func (e *ErrorBanner) Dismiss() {
	e.visible = false
}

// Visible reports whether the banner is showing.
func (e *ErrorBanner) Visible() bool {
	return e.visible
}

// SetWidth updates the banner width.
func (e *ErrorBanner) SetWidth(width int) {
	e.width = width
}

// View renders the banner, or the empty string when hidden.
func (e ErrorBanner) View() string {
	if !e.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.theme.ErrorTitle.Render(e.title))
	b.WriteString("\n")
	b.WriteString(e.theme.ErrorBody.Render(e.message))
	if e.hint != "" {
		b.WriteString("\n")
		b.WriteString(e.theme.ErrorHint.Render(e.hint))
	}

	box := e.theme.ErrorBox
	if e.width > 4 {
		box = box.Width(e.width - 2)
	}
	return box.Render(b.String())
}
