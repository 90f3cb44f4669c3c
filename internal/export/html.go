// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/seralin/tradepost-tui/internal/model"
)

// fencedBlockRe matches fenced code blocks with an optional language tag.
var fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations as standalone HTML documents with
// syntax-highlighted code blocks.
type HTMLExporter struct {
	opts *Options
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{opts: opts}
}

// Export renders the conversation as a standalone HTML page.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(conv.Title))
	b.WriteString("<style>\n")
	b.WriteString(e.css())
	b.WriteString("</style>\n</head>\n<body>\n")

	if e.opts.IncludeMetadata {
		b.WriteString("<header>\n")
		fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(conv.Title))
		fmt.Fprintf(&b, "<p class=\"meta\">%s", conv.CreatedAt.Format("2006-01-02 15:04"))
		if conv.Provider != "" {
			fmt.Fprintf(&b, " &middot; %s", html.EscapeString(conv.Provider))
		}
		if conv.Model != "" {
			fmt.Fprintf(&b, " / %s", html.EscapeString(conv.Model))
		}
		b.WriteString("</p>\n</header>\n")
	}

	for _, msg := range conv.Messages {
		if msg.IsStreaming {
			continue
		}
		b.WriteString(e.renderMessage(msg))
	}

	b.WriteString("</body>\n</html>\n")
	return []byte(b.String()), nil
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the HTML MIME type.
func (e *HTMLExporter) MimeType() string { return "text/html" }

func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<section class=\"message %s\">\n", msg.Role)
	b.WriteString("<div class=\"role\">")
	b.WriteString(html.EscapeString(msg.Role.DisplayName()))
	if e.opts.IncludeTimestamps {
		fmt.Fprintf(&b, " <span class=\"meta\">%s</span>", formatTimestamp(msg.Timestamp))
	}
	b.WriteString("</div>\n")

	b.WriteString("<div class=\"content\">\n")
	b.WriteString(e.formatContent(msg.Content))
	b.WriteString("</div>\n")

	if e.opts.IncludeToolActivity && msg.Meta != nil && msg.Meta.HasActivity() {
		b.WriteString("<div class=\"tools\">Tool activity:<ul>\n")
		for _, tc := range msg.Meta.ToolCalls {
			status := "ok"
			if !tc.Success {
				status = "failed"
			}
			fmt.Fprintf(&b, "<li>%s (%s)</li>\n", html.EscapeString(tc.Tool), status)
		}
		b.WriteString("</ul></div>\n")
	}

	b.WriteString("</section>\n")
	return b.String()
}

// formatContent escapes message text and replaces fenced code blocks with
// chroma-highlighted HTML.
func (e *HTMLExporter) formatContent(content string) string {
	type block struct {
		placeholder string
		html        string
	}
	var blocks []block

	idx := 0
	working := fencedBlockRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := fencedBlockRe.FindStringSubmatch(m)
		placeholder := fmt.Sprintf("\x00CODEBLOCK%d\x00", idx)
		idx++
		blocks = append(blocks, block{placeholder, e.highlight(sub[2], sub[1])})
		return placeholder
	})

	escaped := html.EscapeString(working)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")

	for _, blk := range blocks {
		escaped = strings.Replace(escaped, blk.placeholder, blk.html, 1)
	}
	return escaped
}

// highlight renders code through chroma. On any failure the code is
// emitted as an escaped <pre> block instead.
func (e *HTMLExporter) highlight(code, language string) string {
	fallback := "<pre><code>" + html.EscapeString(code) + "</code></pre>"

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	styleName := "github"
	if e.opts.Theme == "dark" {
		styleName = "monokai"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("html")
	if formatter == nil {
		return fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fallback
	}

	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return fallback
	}
	return b.String()
}

func (e *HTMLExporter) css() string {
	bg, fg, surface := "#ffffff", "#1a1a2e", "#f0f0f5"
	if e.opts.Theme == "dark" {
		bg, fg, surface = "#16161e", "#c0caf5", "#1f2335"
	}
	return fmt.Sprintf(`body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; background: %s; color: %s; }
.message { border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; background: %s; }
.message.user { border-left: 3px solid #7aa2f7; }
.message.assistant { border-left: 3px solid #9ece6a; }
.role { font-weight: 600; margin-bottom: 0.5rem; }
.meta { font-weight: 400; opacity: 0.6; font-size: 0.85em; }
.tools { margin-top: 0.5rem; font-size: 0.85em; opacity: 0.75; }
pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; }
`, bg, fg, surface)
}
