// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// MaxLabelBatch is the backend's hard cap on IDs per labels request.
const MaxLabelBatch = 200

// ErrEmptyBatch indicates a labels request with no IDs.
var ErrEmptyBatch = errors.New("no item IDs to fetch")

// ItemLabel is the display metadata for one canonical item ID.
// Tier 0 means the backend could not determine a tier.
type ItemLabel struct {
	ID          string `json:"id"`
	Found       bool   `json:"found"`
	DisplayName string `json:"display_name"`
	Tier        int    `json:"tier"`
	Enchantment int    `json:"enchantment"`
	IconURL     string `json:"icon_url"`
}

// labelsResponse is the wire shape of GET /items/labels.
type labelsResponse struct {
	Count int         `json:"count"`
	Items []ItemLabel `json:"items"`
}

// FetchLabels resolves canonical item IDs to display metadata via
// GET /items/labels?ids=... . At most MaxLabelBatch IDs per call; callers
// batch above that.
func (c *Client) FetchLabels(ctx context.Context, ids []string) ([]ItemLabel, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(ids) > MaxLabelBatch {
		ids = ids[:MaxLabelBatch]
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var resp labelsResponse
	if err := c.getJSON(ctx, "/items/labels", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
