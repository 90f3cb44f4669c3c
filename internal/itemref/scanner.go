// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package itemref

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// tierTokenRe matches the tier token that opens a free-form item query:
// "T4", "T6.2", "T6@2", "4.1", "6@3". The trailing boundary keeps it from
// firing inside canonical IDs like T5_BAG.
var tierTokenRe = regexp.MustCompile(`(?i)\b(?:T[1-8](?:[.@][0-4])?|[1-8][.@][0-4])\b`)

// wordExtRe matches one more name word after a tier token. Name words
// deliberately exclude digits so a phrase never walks into unrelated
// numbers.
var wordExtRe = regexp.MustCompile(`^\s+[A-Za-z][A-Za-z']*\b`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// maxPhraseWords bounds how many name words a tiered phrase may carry.
const maxPhraseWords = 3

// =============================================================================
// MATCH TYPE
// =============================================================================

// Match is a located item reference inside a text blob. Offsets are byte
// offsets into the scanned string. Matches are ephemeral: recomputed on
// every render pass, never stored.
type Match struct {
	Start   int
	End     int
	Literal string // originating substring, exactly as typed
	ItemID  string // resolved canonical ID (upper case)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizePhrase canonicalizes a free-text phrase for use as a resolution
// key: Unicode NFC, collapsed whitespace, trimmed, lower case.
func NormalizePhrase(s string) string {
	s = norm.NFC.String(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// =============================================================================
// PHRASE EXPANSION
// =============================================================================

type span struct {
	start, end int
}

// phraseSpans expands every tier token in text into candidate phrase spans:
// the token plus one, two, and three following name words. Each sub-span is
// its own candidate; which of them is "the" reference depends on what the
// resolver has learned.
func phraseSpans(text string) []span {
	var spans []span
	for _, loc := range tierTokenRe.FindAllStringIndex(text, -1) {
		end := loc[1]
		for i := 0; i < maxPhraseWords; i++ {
			ext := wordExtRe.FindString(text[end:])
			if ext == "" {
				break
			}
			end += len(ext)
			spans = append(spans, span{loc[0], end})
		}
	}
	return spans
}

// =============================================================================
// SCANNER
// =============================================================================

// Scan finds item references in text. Canonical IDs always match; tiered
// free-text phrases match only when their normalized form has already been
// resolved (present in resolved).
//
// The result is ordered by start offset and pairwise non-overlapping:
// candidates are sorted by (start ascending, span length descending) and
// accepted greedily left to right, so the earliest start wins and on a tie
// the longest span wins.
func Scan(text string, resolved map[string]string) []Match {
	if text == "" {
		return nil
	}

	var candidates []Match

	for _, loc := range canonicalIDRe.FindAllStringIndex(text, -1) {
		literal := text[loc[0]:loc[1]]
		candidates = append(candidates, Match{
			Start:   loc[0],
			End:     loc[1],
			Literal: literal,
			ItemID:  NormalizeID(literal),
		})
	}

	if len(resolved) > 0 {
		for _, sp := range phraseSpans(text) {
			literal := text[sp.start:sp.end]
			id, ok := resolved[NormalizePhrase(literal)]
			if !ok {
				continue // unresolved phrases are skipped, not guessed
			}
			candidates = append(candidates, Match{
				Start:   sp.start,
				End:     sp.end,
				Literal: literal,
				ItemID:  id,
			})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		return candidates[i].End-candidates[i].Start > candidates[j].End-candidates[j].Start
	})

	accepted := candidates[:0]
	lastEnd := 0
	for _, c := range candidates {
		if c.Start >= lastEnd {
			accepted = append(accepted, c)
			lastEnd = c.End
		}
	}
	return accepted
}

// CandidatePhrases returns the normalized tiered phrases present in text
// that are not yet in resolved. These are the queries worth sending to the
// resolver. Duplicates collapse after normalization; order follows first
// appearance, shortest span first.
func CandidatePhrases(text string, resolved map[string]string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, sp := range phraseSpans(text) {
		key := NormalizePhrase(text[sp.start:sp.end])
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := resolved[key]; ok {
			continue
		}
		out = append(out, key)
	}
	return out
}

// CanonicalIDs returns the deduplicated, normalized canonical IDs present
// in text, in first-appearance order.
func CanonicalIDs(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, literal := range canonicalIDRe.FindAllString(text, -1) {
		id := NormalizeID(literal)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
