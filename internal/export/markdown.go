// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/seralin/tradepost-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations as markdown documents.
type MarkdownExporter struct {
	opts *Options
}

// NewMarkdownExporter creates a markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{opts: opts}
}

// Export renders the conversation as markdown.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	var b strings.Builder

	if e.opts.IncludeMetadata {
		b.WriteString("---\n")
		fmt.Fprintf(&b, "title: %q\n", conv.Title)
		fmt.Fprintf(&b, "created: %s\n", conv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		if conv.Provider != "" {
			fmt.Fprintf(&b, "provider: %s\n", conv.Provider)
		}
		if conv.Model != "" {
			fmt.Fprintf(&b, "model: %s\n", conv.Model)
		}
		fmt.Fprintf(&b, "messages: %d\n", len(conv.Messages))
		b.WriteString("---\n\n")
	}

	fmt.Fprintf(&b, "# %s\n\n", conv.Title)

	for _, msg := range conv.Messages {
		if msg.IsStreaming {
			continue
		}

		b.WriteString("## ")
		b.WriteString(msg.Role.DisplayName())
		if e.opts.IncludeTimestamps {
			fmt.Fprintf(&b, " (%s)", formatTimestamp(msg.Timestamp))
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(msg.Content))
		b.WriteString("\n\n")

		if e.opts.IncludeToolActivity && msg.Meta != nil && msg.Meta.HasActivity() {
			b.WriteString(formatToolActivity(msg.Meta))
		}
	}

	return []byte(b.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// formatToolActivity renders the backend tool-call trace as a blockquote.
func formatToolActivity(meta *model.ResponseMeta) string {
	var b strings.Builder
	b.WriteString("> Tool activity:\n")
	for _, tc := range meta.ToolCalls {
		status := "ok"
		if !tc.Success {
			status = "failed"
			if tc.Error != "" {
				status = "failed: " + tc.Error
			}
		}
		fmt.Fprintf(&b, "> - %s (%s)\n", tc.Tool, status)
	}
	b.WriteString("\n")
	return b.String()
}
