// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package itemref

import (
	"context"

	"github.com/seralin/tradepost-tui/internal/backend"
)

// Refs bundles the query resolver and label cache behind the two calls the
// chat view needs: Observe on every text change, Scan on every render.
type Refs struct {
	Resolver *QueryResolver
	Labels   *LabelCache
}

// NewRefs wires a resolver and label cache to the backend client. onChange
// fires whenever background work lands data that should trigger a re-render;
// it may be nil.
func NewRefs(client *backend.Client, onChange func()) *Refs {
	r := &Refs{
		Resolver: NewQueryResolver(client),
		Labels:   NewLabelCache(client),
	}
	r.Resolver.OnResolved = onChange
	r.Labels.OnUpdate = onChange
	return r
}

// Observe inspects text for item references and starts any background work
// they imply: canonical IDs go straight to the label cache, unresolved
// tiered phrases go to the query resolver. Never blocks.
func (r *Refs) Observe(ctx context.Context, text string) {
	if text == "" {
		return
	}
	resolved := r.Resolver.Resolved()

	if ids := CanonicalIDs(text); len(ids) > 0 {
		r.Labels.Request(ctx, ids)
	}
	if phrases := CandidatePhrases(text, resolved); len(phrases) > 0 {
		r.Resolver.Submit(ctx, phrases)
	}

	// Phrases that resolved since the last pass surface their IDs now.
	var extra []string
	for _, m := range Scan(text, resolved) {
		extra = append(extra, m.ItemID)
	}
	if len(extra) > 0 {
		r.Labels.Request(ctx, extra)
	}
}

// Scan locates item references in text using the current resolution state.
func (r *Refs) Scan(text string) []Match {
	return Scan(text, r.Resolver.Resolved())
}

// Label returns display metadata for a canonical ID, never blocking.
func (r *Refs) Label(id string) backend.ItemLabel {
	return r.Labels.Get(id)
}
