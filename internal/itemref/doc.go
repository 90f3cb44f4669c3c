// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package itemref detects and resolves game-item references in chat text.
//
// Two kinds of reference exist: canonical item IDs (fixed-grammar tokens
// like T4_BAG or T8_2H_BOW@3) and tiered free-text queries ("T4 Bag",
// "6.1 bow") that need a backend lookup to map to an ID. The Scanner finds
// both; the QueryResolver turns phrases into IDs via the backend's
// resolve_item tool; the LabelCache batches display-metadata lookups and
// guarantees a synthetic fallback label for every ID so rendering never
// blocks on, or breaks from, a failed fetch.
//
// All mutable state lives in a Refs container that is created once and
// passed down explicitly, so tests run against isolated instances.
package itemref
