// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/seralin/tradepost-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation("ollama", "llama3")
	conv.AddUserMessage("price of T4_BAG in Lymhurst?")
	asst := conv.AddAssistantMessage()
	asst.Finalize("Around 2400 silver.\n\n```python\nprint('hi')\n```", &model.ResponseMeta{
		ToolCalls: []model.ToolCallRecord{{Tool: "get_prices", Success: true}},
	})
	return conv
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "## You") || !strings.Contains(s, "## Assistant") {
		t.Errorf("role headers missing:\n%s", s)
	}
	if !strings.Contains(s, "price of T4_BAG in Lymhurst?") {
		t.Error("user content missing")
	}
	if !strings.Contains(s, "get_prices (ok)") {
		t.Error("tool activity missing")
	}
	if !strings.HasPrefix(s, "---\n") {
		t.Error("frontmatter missing")
	}
}

func TestMarkdownExportSkipsStreaming(t *testing.T) {
	conv := sampleConversation()
	conv.AddAssistantMessage() // unfinished

	out, err := NewMarkdownExporter(nil).Export(conv)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(out), "## Assistant"); n != 1 {
		t.Errorf("got %d assistant sections, want 1", n)
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded model.Conversation
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(decoded.Messages) != 2 {
		t.Errorf("got %d messages, want 2", len(decoded.Messages))
	}
}

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "<!DOCTYPE html>") {
		t.Error("not a standalone HTML document")
	}
	if !strings.Contains(s, "Around 2400 silver.") {
		t.Error("assistant content missing")
	}
	// Fenced block went through the highlighter, not plain escaping.
	if strings.Contains(s, "```") {
		t.Error("fenced code markers leaked into HTML")
	}
}

func TestHTMLExportEscapesmarkup(t *testing.T) {
	conv := model.NewConversation("ollama", "llama3")
	conv.AddUserMessage("<script>alert(1)</script>")

	out, err := NewHTMLExporter(nil).Export(conv)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<script>alert(1)</script>") {
		t.Error("user content not escaped")
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleConversation(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("exported file is empty")
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"markdown", "md", "json", "html"} {
		if _, err := ForFormat(format, nil); err != nil {
			t.Errorf("ForFormat(%q): %v", format, err)
		}
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("ForFormat accepted unknown format")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"How much is T4_BAG?", "How_much_is_T4_BAG"},
		{"", "untitled"},
		{"///", "untitled"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
