// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package itemref

import (
	"context"
	"sync"

	"github.com/seralin/tradepost-tui/internal/backend"
)

// ItemResolver turns a free-text query into canonical ID candidates. The
// backend client satisfies this with its resolve_item tool call.
type ItemResolver interface {
	ResolveItem(ctx context.Context, query string, limit int) ([]backend.ResolveMatch, error)
}

// =============================================================================
// QUERY RESOLVER
// =============================================================================

// QueryResolver maps normalized tiered phrases to canonical item IDs.
// Lookups never block: Resolved returns only what has already been learned,
// and Submit kicks off background resolution for phrases not yet known.
// Transport failures are dropped silently so the same phrase can be retried
// on a later message; an empty match set settles as a permanent miss.
type QueryResolver struct {
	resolver ItemResolver

	mu       sync.RWMutex
	resolved map[string]string // normalized phrase -> canonical ID
	misses   map[string]bool   // settled negatives, never retried
	inflight map[string]bool

	// OnResolved, when set, fires after a phrase settles to an ID.
	// Called without the resolver lock held.
	OnResolved func()
}

// NewQueryResolver returns a resolver backed by the given item lookup.
func NewQueryResolver(r ItemResolver) *QueryResolver {
	return &QueryResolver{
		resolver: r,
		resolved: make(map[string]string),
		misses:   make(map[string]bool),
		inflight: make(map[string]bool),
	}
}

// Resolved returns a snapshot of the phrase-to-ID map for use by Scan.
func (q *QueryResolver) Resolved() map[string]string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make(map[string]string, len(q.resolved))
	for k, v := range q.resolved {
		out[k] = v
	}
	return out
}

// Lookup returns the canonical ID for a normalized phrase, if known.
func (q *QueryResolver) Lookup(phrase string) (string, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	id, ok := q.resolved[phrase]
	return id, ok
}

// Submit starts background resolution for any of the given normalized
// phrases not already resolved, settled negative, or in flight. It returns
// immediately; results land via OnResolved.
func (q *QueryResolver) Submit(ctx context.Context, phrases []string) {
	if q.resolver == nil || len(phrases) == 0 {
		return
	}

	q.mu.Lock()
	var launch []string
	for _, p := range phrases {
		if p == "" || q.inflight[p] || q.misses[p] {
			continue
		}
		if _, ok := q.resolved[p]; ok {
			continue
		}
		q.inflight[p] = true
		launch = append(launch, p)
	}
	q.mu.Unlock()

	for _, p := range launch {
		go q.resolve(ctx, p)
	}
}

func (q *QueryResolver) resolve(ctx context.Context, phrase string) {
	matches, err := q.resolver.ResolveItem(ctx, phrase, 1)

	q.mu.Lock()
	delete(q.inflight, phrase)
	if err != nil {
		// Transport failure: leave the phrase retryable.
		q.mu.Unlock()
		return
	}
	if len(matches) == 0 || matches[0].UniqueName == "" {
		q.misses[phrase] = true
		q.mu.Unlock()
		return
	}
	id := NormalizeID(matches[0].UniqueName)
	q.resolved[phrase] = id
	cb := q.OnResolved
	q.mu.Unlock()

	if cb != nil {
		cb()
	}
}
