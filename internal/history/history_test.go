// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"path/filepath"
	"testing"

	"github.com/seralin/tradepost-tui/internal/backend"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSeriesRoundTrip(t *testing.T) {
	db := openTestDB(t)

	points := []backend.HistoryPoint{
		{Timestamp: "2025-08-01T00:00:00", AvgPrice: 2400, ItemCount: 120},
		{Timestamp: "2025-08-02T00:00:00", AvgPrice: 2500, ItemCount: 98},
	}
	if err := db.SaveSeries("T4_BAG", "Lymhurst", 24, points); err != nil {
		t.Fatalf("SaveSeries: %v", err)
	}

	got, err := db.Series("T4_BAG", "Lymhurst", 24, 0)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if got[0].Timestamp != "2025-08-01T00:00:00" || got[0].AvgPrice != 2400 {
		t.Errorf("first point = %+v", got[0])
	}
}

func TestSeriesUpsertUpdatesInPlace(t *testing.T) {
	db := openTestDB(t)

	first := []backend.HistoryPoint{{Timestamp: "2025-08-01T00:00:00", AvgPrice: 100, ItemCount: 1}}
	if err := db.SaveSeries("T4_BAG", "Martlock", 24, first); err != nil {
		t.Fatal(err)
	}
	second := []backend.HistoryPoint{{Timestamp: "2025-08-01T00:00:00", AvgPrice: 150, ItemCount: 3}}
	if err := db.SaveSeries("T4_BAG", "Martlock", 24, second); err != nil {
		t.Fatal(err)
	}

	got, err := db.Series("T4_BAG", "Martlock", 24, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d points, want 1 after upsert", len(got))
	}
	if got[0].AvgPrice != 150 || got[0].ItemCount != 3 {
		t.Errorf("point not updated: %+v", got[0])
	}
}

func TestSeriesKeysAreDistinct(t *testing.T) {
	db := openTestDB(t)

	p := []backend.HistoryPoint{{Timestamp: "2025-08-01T00:00:00", AvgPrice: 100, ItemCount: 1}}
	if err := db.SaveSeries("T4_BAG", "Lymhurst", 24, p); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSeries("T4_BAG", "Martlock", 24, p); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSeries("T4_BAG", "Lymhurst", 6, p); err != nil {
		t.Fatal(err)
	}

	got, err := db.Series("T4_BAG", "Lymhurst", 24, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("series leaked across keys: %d points", len(got))
	}
}

func TestSeriesLimitKeepsMostRecent(t *testing.T) {
	db := openTestDB(t)

	points := []backend.HistoryPoint{
		{Timestamp: "2025-08-01T00:00:00", AvgPrice: 1, ItemCount: 1},
		{Timestamp: "2025-08-02T00:00:00", AvgPrice: 2, ItemCount: 1},
		{Timestamp: "2025-08-03T00:00:00", AvgPrice: 3, ItemCount: 1},
	}
	if err := db.SaveSeries("T4_BAG", "Lymhurst", 24, points); err != nil {
		t.Fatal(err)
	}

	got, err := db.Series("T4_BAG", "Lymhurst", 24, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	// Most recent two, oldest first.
	if got[0].AvgPrice != 2 || got[1].AvgPrice != 3 {
		t.Errorf("wrong window: %+v", got)
	}
}

func TestGoldRoundTrip(t *testing.T) {
	db := openTestDB(t)

	points := []backend.GoldPoint{
		{Timestamp: "2025-08-01T00:00:00", Price: 3500},
		{Timestamp: "2025-08-01T01:00:00", Price: 3550},
	}
	if err := db.SaveGold(points); err != nil {
		t.Fatalf("SaveGold: %v", err)
	}

	got, err := db.Gold(10)
	if err != nil {
		t.Fatalf("Gold: %v", err)
	}
	if len(got) != 2 || got[0].Price != 3500 || got[1].Price != 3550 {
		t.Errorf("gold series = %+v", got)
	}
}

func TestPrune(t *testing.T) {
	db := openTestDB(t)

	p := []backend.HistoryPoint{{Timestamp: "2025-08-01T00:00:00", AvgPrice: 1, ItemCount: 1}}
	if err := db.SaveSeries("T4_BAG", "Lymhurst", 24, p); err != nil {
		t.Fatal(err)
	}

	// Retention window covers the rows just written; nothing is removed.
	if err := db.Prune(30); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	priceRows, _, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if priceRows != 1 {
		t.Errorf("fresh rows pruned: %d rows", priceRows)
	}
}
