// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// =============================================================================
// MARKET DATA
// =============================================================================

// MarketPrice is one per-city, per-quality price observation.
type MarketPrice struct {
	City         string `json:"city"`
	Quality      int    `json:"quality"`
	SellPriceMin int64  `json:"sell_price_min"`
	SellPriceMax int64  `json:"sell_price_max"`
	BuyPriceMin  int64  `json:"buy_price_min"`
	BuyPriceMax  int64  `json:"buy_price_max"`
	UpdatedAt    string `json:"sell_price_min_date,omitempty"`
}

// PricesResponse is the wire shape of GET /market/prices.
type PricesResponse struct {
	ItemID string        `json:"item_id"`
	Data   []MarketPrice `json:"data"`
}

// HistoryPoint is one aggregated bucket of a price history series.
type HistoryPoint struct {
	Timestamp string  `json:"timestamp"`
	AvgPrice  float64 `json:"avg_price"`
	ItemCount int64   `json:"item_count"`
}

// HistoryResponse is the wire shape of GET /market/history.
type HistoryResponse struct {
	ItemID    string         `json:"item_id"`
	City      string         `json:"city"`
	Timescale int            `json:"timescale"`
	Data      []HistoryPoint `json:"data"`
}

// GoldPoint is one gold price observation.
type GoldPoint struct {
	Price     int64  `json:"price"`
	Timestamp string `json:"timestamp"`
}

// goldResponse is the wire shape of GET /market/gold.
type goldResponse struct {
	Prices []GoldPoint `json:"prices"`
}

// Prices fetches current market prices for an item in one city.
// quality 0 means all qualities.
func (c *Client) Prices(ctx context.Context, itemID, city string, quality int) (*PricesResponse, error) {
	query := url.Values{}
	query.Set("item", itemID)
	query.Set("city", city)
	if quality > 0 {
		query.Set("quality", strconv.Itoa(quality))
	}

	var resp PricesResponse
	if err := c.getJSON(ctx, "/market/prices", query, &resp); err != nil {
		return nil, err
	}
	if resp.ItemID == "" {
		resp.ItemID = itemID
	}
	return &resp, nil
}

// History fetches aggregated price history for an item in one city.
// timescale is the bucket size in hours (1, 6, or 24).
func (c *Client) History(ctx context.Context, itemID, city string, timescale int) (*HistoryResponse, error) {
	if timescale <= 0 {
		timescale = 24
	}

	query := url.Values{}
	query.Set("item", itemID)
	query.Set("city", city)
	query.Set("timescale", strconv.Itoa(timescale))

	var resp HistoryResponse
	if err := c.getJSON(ctx, "/market/history", query, &resp); err != nil {
		return nil, err
	}
	if resp.ItemID == "" {
		resp.ItemID = itemID
	}
	return &resp, nil
}

// Gold fetches the most recent gold prices, newest last.
func (c *Client) Gold(ctx context.Context, count int) ([]GoldPoint, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}

	var resp goldResponse
	if err := c.getJSON(ctx, "/market/gold", query, &resp); err != nil {
		return nil, err
	}
	return resp.Prices, nil
}

// ParseTimestamp parses the backend's timestamp format, tolerating both
// RFC 3339 and the bare variant without zone the history endpoint emits.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
