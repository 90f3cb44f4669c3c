// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seralin/tradepost-tui/internal/itemref"
	"github.com/seralin/tradepost-tui/internal/model"
	"github.com/seralin/tradepost-tui/internal/render"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageView renders chat messages with item-reference annotation and
// markdown styling.
type MessageView struct {
	theme    *styles.Theme
	markdown *render.Markdown
	refs     *itemref.Refs
	width    int

	// Compact collapses the header to a single line without timestamps.
	Compact bool
	// ShowToolActivity renders the backend tool-call trace under replies.
	ShowToolActivity bool
}

// NewMessageView creates a message renderer.
func NewMessageView(theme *styles.Theme, refs *itemref.Refs, width int) *MessageView {
	return &MessageView{
		theme:            theme,
		markdown:         render.NewMarkdown(width),
		refs:             refs,
		width:            width,
		ShowToolActivity: true,
	}
}

// SetWidth updates the wrap width.
func (v *MessageView) SetWidth(width int) {
	v.width = width
	v.markdown.SetWidth(width)
}

// Render renders a single message.
func (v *MessageView) Render(msg *model.Message) string {
	var b strings.Builder

	b.WriteString(v.header(msg))
	b.WriteString("\n")

	content := msg.Content
	if content == "" && msg.IsStreaming {
		content = "..."
	}

	if msg.Role == model.RoleAssistant && v.refs != nil {
		resolved := v.refs.Resolver.Resolved()
		content = render.Annotate(content, resolved, v.refs)
	}
	b.WriteString(v.markdown.Render(content))

	if v.ShowToolActivity && msg.Meta != nil && msg.Meta.HasActivity() {
		b.WriteString(v.toolActivity(msg.Meta))
	}
	return b.String()
}

func (v *MessageView) header(msg *model.Message) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = v.theme.UserLabel.Render(msg.Role.DisplayName())
	case model.RoleAssistant:
		label = v.theme.AssistantLabel.Render(msg.Role.DisplayName())
	default:
		label = v.theme.SystemLabel.Render(msg.Role.DisplayName())
	}

	if v.Compact {
		return label
	}

	meta := msg.Timestamp.Format("15:04")
	if msg.Role == model.RoleAssistant && msg.Model != "" {
		meta = fmt.Sprintf("%s %s/%s", meta, msg.Provider, msg.Model)
	}
	return label + " " + v.theme.MessageMeta.Render(meta)
}

func (v *MessageView) toolActivity(meta *model.ResponseMeta) string {
	var b strings.Builder
	for _, tc := range meta.ToolCalls {
		marker := v.theme.ToolSuccess.Render("*")
		detail := tc.Tool
		if !tc.Success {
			marker = v.theme.ToolError.Render("x")
			if tc.Error != "" {
				detail = fmt.Sprintf("%s: %s", tc.Tool, tc.Error)
			}
		}
		b.WriteString("  " + marker + " " + v.theme.MessageMeta.Render(detail) + "\n")
	}
	if rounds := len(meta.Rounds); rounds > 1 {
		b.WriteString("  " + v.theme.MessageMeta.Render(fmt.Sprintf("%d tool rounds", rounds)) + "\n")
	}
	return b.String()
}

// =============================================================================
// ITEM LABEL LINE
// =============================================================================

// ItemLine formats a resolved item reference as a single styled line for
// list views: name, tier suffix, and canonical ID.
func ItemLine(theme *styles.Theme, name, suffix, id string) string {
	parts := []string{theme.ItemLabel.Render(name)}
	if suffix != "" {
		parts = append(parts, theme.ItemTier.Render(suffix))
	}
	parts = append(parts, theme.MessageMeta.Render(id))
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, " "))
}
