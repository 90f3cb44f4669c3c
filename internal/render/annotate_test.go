// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/seralin/tradepost-tui/internal/backend"
)

// mapLabeler serves labels from a fixed map, synthesizing not-found
// entries for everything else.
type mapLabeler map[string]backend.ItemLabel

func (m mapLabeler) Label(id string) backend.ItemLabel {
	if l, ok := m[id]; ok {
		return l
	}
	return backend.ItemLabel{ID: id, DisplayName: id}
}

var testLabels = mapLabeler{
	"T4_BAG": {ID: "T4_BAG", Found: true, DisplayName: "Adept's Bag", Tier: 4},
	"T8_2H_BOW@3": {
		ID: "T8_2H_BOW@3", Found: true, DisplayName: "Elder's Bow", Tier: 8, Enchantment: 3,
	},
}

func TestAnnotateCanonicalID(t *testing.T) {
	got := Annotate("Check T4_BAG prices.", nil, testLabels)
	want := "Check **Adept's Bag (T4)** prices."
	if got != want {
		t.Errorf("Annotate = %q, want %q", got, want)
	}
}

func TestAnnotateEnchantedSuffix(t *testing.T) {
	got := Annotate("Sell t8_2h_bow@3 now", nil, testLabels)
	if !strings.Contains(got, "**Elder's Bow (T8.3)**") {
		t.Errorf("enchanted suffix missing: %q", got)
	}
}

func TestAnnotateResolvedPhrase(t *testing.T) {
	resolved := map[string]string{"t4 bag": "T4_BAG"}
	got := Annotate("how much is a t4 bag today", resolved, testLabels)
	want := "how much is a **Adept's Bag (T4)** today"
	if got != want {
		t.Errorf("Annotate = %q, want %q", got, want)
	}
}

func TestAnnotateSkipsCodeSpans(t *testing.T) {
	src := "Use `T4_BAG` in the query, not T4_BAG itself."
	got := Annotate(src, nil, testLabels)
	if !strings.Contains(got, "`T4_BAG`") {
		t.Errorf("code span was rewritten: %q", got)
	}
	if !strings.Contains(got, "**Adept's Bag (T4)**") {
		t.Errorf("plain reference not rewritten: %q", got)
	}
}

func TestAnnotateSkipsCodeBlocks(t *testing.T) {
	src := "Query:\n\n```\nGET /market/prices?item=T4_BAG\n```\n"
	got := Annotate(src, nil, testLabels)
	if got != src {
		t.Errorf("code block was rewritten:\n%q", got)
	}
}

func TestAnnotateUnresolvedLeftAlone(t *testing.T) {
	src := "What about T5_OFF_SHIELD today?"
	if got := Annotate(src, nil, testLabels); got != src {
		t.Errorf("unresolved label rewritten: %q", got)
	}
}

func TestAnnotateEmpty(t *testing.T) {
	if got := Annotate("", nil, testLabels); got != "" {
		t.Errorf("Annotate(\"\") = %q", got)
	}
	src := "plain text, no items"
	if got := Annotate(src, nil, testLabels); got != src {
		t.Errorf("Annotate = %q, want unchanged", got)
	}
}

func TestMarkdownFallback(t *testing.T) {
	m := NewMarkdown(80)
	out := m.Render("# Title\n\nbody\n")
	if out == "" {
		t.Fatal("Render returned empty output")
	}
	if !strings.Contains(out, "Title") {
		t.Errorf("rendered output lost content: %q", out)
	}
}
