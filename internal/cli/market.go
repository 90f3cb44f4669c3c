// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// market.go - quick market lookups without entering the TUI.
//
// Commands: price QUERY [--city NAME]
//           gold [--count N]
//
// Examples:
//   tradepost price "T4 bag" --city Lymhurst
//   tradepost price T5_BAG
//   tradepost gold --count 24
//
// Fetched series are cached in the local history database so lookups keep
// working when the backend is unreachable.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/history"
	"github.com/seralin/tradepost-tui/internal/itemref"
	"github.com/seralin/tradepost-tui/internal/ui/components"
)

const historyTimescale = 24

// HandlePrice fetches and prints the price history of one item.
func HandlePrice(args Args) {
	if args.Query == "" {
		fmt.Fprintln(os.Stderr, "usage: tradepost price QUERY [--city NAME]")
		os.Exit(1)
	}

	cfg, client := marketClient(args)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	itemID, err := resolveQuery(ctx, client, args.Query)
	if err != nil {
		fail(err)
	}

	db := openHistoryDB(cfg)
	if db != nil {
		defer db.Close()
	}

	points := fetchSeries(ctx, client, db, itemID, args.City)
	if len(points) == 0 {
		fail(fmt.Errorf("no price history for %s in %s", itemID, args.City))
	}

	if args.JSON {
		printJSON(points)
		return
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.AvgPrice
	}
	latest := points[len(points)-1]

	fmt.Printf("%s in %s\n", itemID, args.City)
	fmt.Println(components.Sparkline(values, sparkWidth()))
	fmt.Printf("latest: %s silver  (%d listings, %s)\n",
		groupThousands(int64(latest.AvgPrice)), latest.ItemCount, latest.Timestamp)
}

// HandleGold fetches and prints the gold price series.
func HandleGold(args Args) {
	cfg, client := marketClient(args)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := openHistoryDB(cfg)
	if db != nil {
		defer db.Close()
	}

	count := args.Count
	if count <= 0 {
		count = 48
	}

	points, err := client.Gold(ctx, count)
	if err == nil && db != nil {
		db.SaveGold(points)
	}
	if err != nil && db != nil {
		// Backend unreachable: serve the cached series.
		if cached, cacheErr := db.Gold(count); cacheErr == nil && len(cached) > 0 {
			points = cached
			err = nil
		}
	}
	if err != nil {
		fail(err)
	}
	if len(points) == 0 {
		fail(fmt.Errorf("no gold price data"))
	}

	if args.JSON {
		printJSON(points)
		return
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Price)
	}
	latest := points[len(points)-1]

	fmt.Println("gold price")
	fmt.Println(components.Sparkline(values, sparkWidth()))
	fmt.Printf("latest: %s silver  (%s)\n", groupThousands(latest.Price), latest.Timestamp)
}

// =============================================================================
// HELPERS
// =============================================================================

func marketClient(args Args) (*config.Config, *backend.Client) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if args.BackendURL != "" {
		cfg.Backend.BaseURL = args.BackendURL
	}
	client := backend.New(cfg.Backend.BaseURL)
	if !client.IsConfigured() {
		fail(backend.ErrNoBaseURL)
	}
	return cfg, client
}

func openHistoryDB(cfg *config.Config) *history.DB {
	if !cfg.History.Enabled {
		return nil
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil
	}
	db, err := history.Open(path)
	if err != nil {
		return nil
	}
	return db
}

// resolveQuery turns a free-text item query into a canonical ID, passing
// canonical IDs through untouched.
func resolveQuery(ctx context.Context, client *backend.Client, query string) (string, error) {
	if itemref.IsCanonicalID(query) {
		return itemref.NormalizeID(query), nil
	}
	matches, err := client.ResolveItem(ctx, itemref.NormalizePhrase(query), 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no item matches %q", query)
	}
	return itemref.NormalizeID(matches[0].UniqueName), nil
}

// fetchSeries prefers the backend and falls back to the local cache,
// writing fresh data through so the cache stays warm.
func fetchSeries(ctx context.Context, client *backend.Client, db *history.DB, itemID, city string) []backend.HistoryPoint {
	resp, err := client.History(ctx, itemID, city, historyTimescale)
	if err == nil {
		if db != nil {
			db.SaveSeries(itemID, city, historyTimescale, resp.Data)
		}
		return resp.Data
	}
	if db != nil {
		if cached, cacheErr := db.Series(itemID, city, historyTimescale, 0); cacheErr == nil {
			return cached
		}
	}
	return nil
}

func sparkWidth() int {
	w := TerminalWidth()
	if w > 72 {
		w = 72
	}
	return w
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail(err)
	}
}
