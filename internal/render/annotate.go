// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/itemref"
)

// Labeler supplies display metadata for canonical item IDs. itemref.Refs
// satisfies this.
type Labeler interface {
	Label(id string) backend.ItemLabel
}

var mdParser = goldmark.New()

// opaqueKinds are markdown nodes whose content must never be rewritten.
// Code is code; raw HTML passes through untouched.
var opaqueKinds = map[ast.NodeKind]bool{
	ast.KindCodeSpan:        true,
	ast.KindCodeBlock:       true,
	ast.KindFencedCodeBlock: true,
	ast.KindHTMLBlock:       true,
	ast.KindRawHTML:         true,
}

// =============================================================================
// ANNOTATION
// =============================================================================

type replacement struct {
	start, end int
	text       string
}

// Annotate rewrites item references in markdown source with their resolved
// labels, bolded and suffixed with tier: "**Adept's Bag (T4)**". Only
// references whose label has actually resolved are rewritten; everything
// else, including all code spans and blocks, passes through byte for byte.
//
// resolved maps normalized tiered phrases to canonical IDs, as produced by
// the query resolver.
func Annotate(source string, resolved map[string]string, labels Labeler) string {
	if source == "" || labels == nil {
		return source
	}

	segments := textSegments(source)
	if len(segments) == 0 {
		return source
	}

	var repls []replacement
	for _, seg := range segments {
		for _, m := range itemref.Scan(source[seg.start:seg.end], resolved) {
			label := labels.Label(m.ItemID)
			if !label.Found {
				continue // unresolved labels render as typed until data lands
			}
			repls = append(repls, replacement{
				start: seg.start + m.Start,
				end:   seg.start + m.End,
				text:  formatLabel(label),
			})
		}
	}
	if len(repls) == 0 {
		return source
	}

	sort.Slice(repls, func(i, j int) bool { return repls[i].start < repls[j].start })

	var b strings.Builder
	b.Grow(len(source) + len(repls)*16)
	pos := 0
	for _, r := range repls {
		if r.start < pos {
			continue
		}
		b.WriteString(source[pos:r.start])
		b.WriteString(r.text)
		pos = r.end
	}
	b.WriteString(source[pos:])
	return b.String()
}

// formatLabel renders a resolved label as bold markdown with its tier
// suffix: "**Adept's Bag (T4)**".
func formatLabel(l backend.ItemLabel) string {
	suffix := itemref.TierSuffix(l.Tier, l.Enchantment)
	if suffix == "" {
		return "**" + l.DisplayName + "**"
	}
	return "**" + l.DisplayName + " " + suffix + "**"
}

// =============================================================================
// SEGMENT COLLECTION
// =============================================================================

type segment struct {
	start, end int
}

// textSegments walks the markdown AST and returns the byte ranges of plain
// text nodes, skipping everything under an opaque node. Offsets index the
// original source.
func textSegments(source string) []segment {
	src := []byte(source)
	doc := mdParser.Parser().Parse(gmtext.NewReader(src))

	var segs []segment
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if opaqueKinds[n.Kind()] {
			return ast.WalkSkipChildren, nil
		}
		if t, ok := n.(*ast.Text); ok {
			seg := t.Segment
			if seg.Len() > 0 {
				segs = append(segs, segment{seg.Start, seg.Stop})
			}
		}
		return ast.WalkContinue, nil
	})
	return segs
}
