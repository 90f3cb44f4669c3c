// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package itemref

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/seralin/tradepost-tui/internal/backend"
)

// =============================================================================
// ID GRAMMAR
// =============================================================================

func TestIsCanonicalID(t *testing.T) {
	valid := []string{"T4_BAG", "t4_bag", "T8_2H_BOW@3", "T6_LEATHER_LEVEL1@1"}
	for _, s := range valid {
		if !IsCanonicalID(s) {
			t.Errorf("IsCanonicalID(%q) = false, want true", s)
		}
	}
	invalid := []string{"T9_BAG", "T4", "BAG_T4", "T4_", "T4 bag", ""}
	for _, s := range invalid {
		if IsCanonicalID(s) {
			t.Errorf("IsCanonicalID(%q) = true, want false", s)
		}
	}
}

func TestParseTierAndEnchantment(t *testing.T) {
	tests := []struct {
		id   string
		tier int
		ench int
	}{
		{"T4_BAG", 4, 0},
		{"t8_2h_bow@3", 8, 3},
		{"T6_LEATHER@1", 6, 1},
		{"UNKNOWN", 0, 0},
		{"T4_BAG@x", 4, 0},
	}
	for _, tt := range tests {
		if got := ParseTier(tt.id); got != tt.tier {
			t.Errorf("ParseTier(%q) = %d, want %d", tt.id, got, tt.tier)
		}
		if got := ParseEnchantment(tt.id); got != tt.ench {
			t.Errorf("ParseEnchantment(%q) = %d, want %d", tt.id, got, tt.ench)
		}
	}
}

func TestIconURL(t *testing.T) {
	got := IconURL("t4_bag")
	want := "https://render.albiononline.com/v1/item/T4_BAG.png"
	if got != want {
		t.Errorf("IconURL = %q, want %q", got, want)
	}
	// @ must be escaped for the render service.
	got = IconURL("T8_2H_BOW@3")
	want = "https://render.albiononline.com/v1/item/T8_2H_BOW%403.png"
	if got != want {
		t.Errorf("IconURL = %q, want %q", got, want)
	}
}

func TestTierSuffix(t *testing.T) {
	if got := TierSuffix(4, 0); got != "(T4)" {
		t.Errorf("TierSuffix(4,0) = %q", got)
	}
	if got := TierSuffix(6, 2); got != "(T6.2)" {
		t.Errorf("TierSuffix(6,2) = %q", got)
	}
	if got := TierSuffix(0, 3); got != "" {
		t.Errorf("TierSuffix(0,3) = %q, want empty", got)
	}
}

// =============================================================================
// SCANNER
// =============================================================================

func TestScanCanonicalIDs(t *testing.T) {
	text := "Compare T4_BAG with t8_2h_bow@3 prices."
	matches := Scan(text, nil)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ItemID != "T4_BAG" || matches[1].ItemID != "T8_2H_BOW@3" {
		t.Errorf("unexpected IDs: %q, %q", matches[0].ItemID, matches[1].ItemID)
	}
	if text[matches[0].Start:matches[0].End] != matches[0].Literal {
		t.Error("match offsets do not slice back to the literal")
	}
}

func TestScanPhraseNeedsResolution(t *testing.T) {
	text := "how much is a t4 bag today"

	if matches := Scan(text, nil); len(matches) != 0 {
		t.Fatalf("unresolved phrase matched: %+v", matches)
	}

	resolved := map[string]string{"t4 bag today": "T4_BAG", "t4 bag": "T4_BAG"}
	matches := Scan(text, resolved)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	// Longest span at the same start wins.
	if matches[0].Literal != "t4 bag today" {
		t.Errorf("got literal %q, want the longer span", matches[0].Literal)
	}
	if matches[0].ItemID != "T4_BAG" {
		t.Errorf("ItemID = %q", matches[0].ItemID)
	}
}

func TestScanNonOverlapping(t *testing.T) {
	resolved := map[string]string{"t4 bag": "T4_BAG"}
	text := "t4 bag then T5_BAG then t4 bag"
	matches := Scan(text, resolved)
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3: %+v", len(matches), matches)
	}
	last := 0
	for i, m := range matches {
		if m.Start < last {
			t.Errorf("match %d overlaps previous (start %d < %d)", i, m.Start, last)
		}
		last = m.End
	}
}

func TestScanOrderedByStart(t *testing.T) {
	text := "T5_BAG before T4_BAG"
	matches := Scan(text, nil)
	if len(matches) != 2 || matches[0].ItemID != "T5_BAG" || matches[1].ItemID != "T4_BAG" {
		t.Fatalf("matches out of order: %+v", matches)
	}
}

func TestNormalizePhrase(t *testing.T) {
	if got := NormalizePhrase("  T4   Bag\n"); got != "t4 bag" {
		t.Errorf("NormalizePhrase = %q", got)
	}
}

func TestCandidatePhrases(t *testing.T) {
	text := "price of t4 bag and T4 bag, plus T5_BAG"
	resolved := map[string]string{}

	got := CandidatePhrases(text, resolved)
	// Duplicates collapse after normalization; canonical IDs are excluded.
	want := []string{"t4 bag", "t4 bag and"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CandidatePhrases = %v, want %v", got, want)
	}

	resolved["t4 bag"] = "T4_BAG"
	got = CandidatePhrases(text, resolved)
	for _, p := range got {
		if p == "t4 bag" {
			t.Error("already resolved phrase returned as candidate")
		}
	}
}

// =============================================================================
// QUERY RESOLVER
// =============================================================================

type fakeResolver struct {
	mu      sync.Mutex
	calls   []string
	matches []backend.ResolveMatch
	err     error
}

func (f *fakeResolver) ResolveItem(ctx context.Context, query string, limit int) ([]backend.ResolveMatch, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()
	return f.matches, f.err
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestResolverLearnsPhrase(t *testing.T) {
	fake := &fakeResolver{matches: []backend.ResolveMatch{{UniqueName: "T4_BAG", DisplayName: "Bag"}}}
	q := NewQueryResolver(fake)

	fired := false
	q.OnResolved = func() { fired = true }

	q.resolve(context.Background(), "t4 bag")

	id, ok := q.Lookup("t4 bag")
	if !ok || id != "T4_BAG" {
		t.Fatalf("Lookup = %q, %v", id, ok)
	}
	if !fired {
		t.Error("OnResolved did not fire")
	}
}

func TestResolverMissSettles(t *testing.T) {
	fake := &fakeResolver{}
	q := NewQueryResolver(fake)

	q.resolve(context.Background(), "t4 gibberish")
	if _, ok := q.Lookup("t4 gibberish"); ok {
		t.Fatal("miss should not resolve")
	}

	// A settled miss is never resubmitted.
	q.Submit(context.Background(), []string{"t4 gibberish"})
	if n := fake.callCount(); n != 1 {
		t.Errorf("resolver called %d times, want 1", n)
	}
}

func TestResolverFailureIsRetryable(t *testing.T) {
	fake := &fakeResolver{err: errors.New("backend down")}
	q := NewQueryResolver(fake)

	q.resolve(context.Background(), "t4 bag")
	q.resolve(context.Background(), "t4 bag")
	if n := fake.callCount(); n != 2 {
		t.Errorf("resolver called %d times, want 2 (failures stay retryable)", n)
	}
}

// =============================================================================
// LABEL CACHE
// =============================================================================

type fakeFetcher struct {
	mu     sync.Mutex
	calls  [][]string
	labels []backend.ItemLabel
	err    error
}

func (f *fakeFetcher) FetchLabels(ctx context.Context, ids []string) ([]backend.ItemLabel, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ids)
	f.mu.Unlock()
	return f.labels, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestLabelCacheSyntheticFallback(t *testing.T) {
	c := NewLabelCache(nil)
	l := c.Get("t6_leather@2")
	if l.Found {
		t.Error("unknown ID reported Found")
	}
	if l.DisplayName != "T6_LEATHER@2" {
		t.Errorf("DisplayName = %q, want raw ID", l.DisplayName)
	}
	if l.Tier != 6 || l.Enchantment != 2 {
		t.Errorf("lexical parse gave tier %d ench %d", l.Tier, l.Enchantment)
	}
	if l.IconURL == "" {
		t.Error("synthetic entry has no icon URL")
	}
}

func TestLabelCacheFetchSettles(t *testing.T) {
	fake := &fakeFetcher{labels: []backend.ItemLabel{
		{ID: "T4_BAG", Found: true, DisplayName: "Bag", Tier: 4, IconURL: "http://x/T4_BAG.png"},
	}}
	c := NewLabelCache(fake)

	c.fetchBatch(context.Background(), []string{"T4_BAG"})

	l := c.Get("T4_BAG")
	if !l.Found || l.DisplayName != "Bag" {
		t.Fatalf("Get after fetch = %+v", l)
	}

	// Settled IDs are not refetched.
	c.Request(context.Background(), []string{"T4_BAG"})
	if n := fake.callCount(); n != 1 {
		t.Errorf("fetcher called %d times, want 1", n)
	}
}

func TestLabelCacheNotFoundSettles(t *testing.T) {
	fake := &fakeFetcher{labels: []backend.ItemLabel{{ID: "T4_NOPE", Found: false}}}
	c := NewLabelCache(fake)

	c.fetchBatch(context.Background(), []string{"T4_NOPE"})

	l := c.Get("T4_NOPE")
	if l.Found {
		t.Error("not-found ID reported Found")
	}
	if l.DisplayName != "T4_NOPE" {
		t.Errorf("DisplayName = %q, want raw ID fallback", l.DisplayName)
	}

	c.Request(context.Background(), []string{"T4_NOPE"})
	if n := fake.callCount(); n != 1 {
		t.Errorf("fetcher called %d times, want 1 (not-found settles)", n)
	}
}

func TestLabelCacheFailureIsRetryable(t *testing.T) {
	fake := &fakeFetcher{err: errors.New("backend down")}
	c := NewLabelCache(fake)

	c.fetchBatch(context.Background(), []string{"T4_BAG"})
	c.fetchBatch(context.Background(), []string{"T4_BAG"})
	if n := fake.callCount(); n != 2 {
		t.Errorf("fetcher called %d times, want 2 (failures stay retryable)", n)
	}
}

func TestLabelCacheNeverDowngrades(t *testing.T) {
	fake := &fakeFetcher{labels: []backend.ItemLabel{
		{ID: "T4_BAG", Found: true, DisplayName: "Bag", Tier: 4},
	}}
	c := NewLabelCache(fake)
	c.fetchBatch(context.Background(), []string{"T4_BAG"})

	// A later not-found for the same ID must not erase the resolved label.
	fake.labels = []backend.ItemLabel{{ID: "T4_BAG", Found: false}}
	c.fetchBatch(context.Background(), []string{"T4_BAG"})

	if l := c.Get("T4_BAG"); !l.Found || l.DisplayName != "Bag" {
		t.Errorf("resolved entry was downgraded: %+v", l)
	}
}
