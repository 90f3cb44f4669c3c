// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package itemref

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/seralin/tradepost-tui/internal/backend"
)

// labelBatchSize is the number of IDs sent per labels request. Kept under
// the backend's hard cap so a burst of new IDs never trips a 4xx.
const labelBatchSize = 100

// LabelFetcher fetches display metadata for canonical item IDs. The
// backend client satisfies this.
type LabelFetcher interface {
	FetchLabels(ctx context.Context, ids []string) ([]backend.ItemLabel, error)
}

// =============================================================================
// LABEL CACHE
// =============================================================================

// LabelCache maps canonical item IDs to display metadata. Reads never
// block; unknown IDs get a synthetic entry immediately and a background
// fetch fills in the real label. A successful fetch settles an ID for the
// session, even when the backend reports it not found. A transport failure
// leaves the synthetic entry in place and the ID retryable.
type LabelCache struct {
	fetcher LabelFetcher
	limiter *rate.Limiter

	mu       sync.RWMutex
	entries  map[string]backend.ItemLabel
	settled  map[string]bool
	inflight map[string]bool

	// OnUpdate, when set, fires after a fetch lands fresh labels.
	// Called without the cache lock held.
	OnUpdate func()
}

// NewLabelCache returns a cache backed by the given fetcher. At most two
// label requests per second leave the cache, bursting to four.
func NewLabelCache(f LabelFetcher) *LabelCache {
	return &LabelCache{
		fetcher:  f,
		limiter:  rate.NewLimiter(rate.Limit(2), 4),
		entries:  make(map[string]backend.ItemLabel),
		settled:  make(map[string]bool),
		inflight: make(map[string]bool),
	}
}

// syntheticLabel builds a placeholder entry from the ID's own grammar:
// the raw ID stands in for the name, tier and enchantment come from the
// lexical parse.
func syntheticLabel(id string) backend.ItemLabel {
	return backend.ItemLabel{
		ID:          id,
		Found:       false,
		DisplayName: id,
		Tier:        ParseTier(id),
		Enchantment: ParseEnchantment(id),
		IconURL:     IconURL(id),
	}
}

// Get returns the cached label for a canonical ID, synthesizing a
// placeholder for IDs never seen. It never blocks on the network.
func (c *LabelCache) Get(id string) backend.ItemLabel {
	id = NormalizeID(id)
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return entry
	}
	return syntheticLabel(id)
}

// Request notes interest in the given canonical IDs: each unknown ID gets
// a synthetic entry right away, and IDs not yet settled or in flight are
// fetched in the background. Returns immediately.
func (c *LabelCache) Request(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	c.mu.Lock()
	var fetch []string
	for _, raw := range ids {
		id := NormalizeID(raw)
		if id == "" {
			continue
		}
		if _, ok := c.entries[id]; !ok {
			c.entries[id] = syntheticLabel(id)
		}
		if c.settled[id] || c.inflight[id] {
			continue
		}
		c.inflight[id] = true
		fetch = append(fetch, id)
	}
	c.mu.Unlock()

	if c.fetcher == nil || len(fetch) == 0 {
		c.clearInflight(fetch)
		return
	}

	for start := 0; start < len(fetch); start += labelBatchSize {
		end := start + labelBatchSize
		if end > len(fetch) {
			end = len(fetch)
		}
		go c.fetchBatch(ctx, fetch[start:end])
	}
}

func (c *LabelCache) fetchBatch(ctx context.Context, ids []string) {
	defer c.clearInflight(ids)

	if err := c.limiter.Wait(ctx); err != nil {
		return
	}

	labels, err := c.fetcher.FetchLabels(ctx, ids)
	if err != nil {
		return // synthetic entries stay, IDs remain retryable
	}

	c.mu.Lock()
	for _, l := range labels {
		id := NormalizeID(l.ID)
		if id == "" {
			continue
		}
		c.settled[id] = true
		if l.Found {
			if l.IconURL == "" {
				l.IconURL = IconURL(id)
			}
			l.ID = id
			c.entries[id] = l
			continue
		}
		// Not found is authoritative: keep the synthetic entry but stop
		// asking. Never downgrade an already resolved entry.
		if cur, ok := c.entries[id]; !ok || !cur.Found {
			c.entries[id] = syntheticLabel(id)
		}
	}
	cb := c.OnUpdate
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// PendingCount returns the number of IDs with a fetch in flight.
func (c *LabelCache) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.inflight)
}

func (c *LabelCache) clearInflight(ids []string) {
	if len(ids) == 0 {
		return
	}
	c.mu.Lock()
	for _, id := range ids {
		delete(c.inflight, id)
	}
	c.mu.Unlock()
}
