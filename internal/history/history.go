// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history caches market price series in a local SQLite database so
// charts render instantly and survive backend outages. Series are upserted
// by bucket timestamp; a refetch of the same window updates in place.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/seralin/tradepost-tui/internal/backend"
)

// =============================================================================
// DATABASE
// =============================================================================

// DB is the local price history cache.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (h *DB) Close() error {
	return h.db.Close()
}

// =============================================================================
// PRICE SERIES
// =============================================================================

// SaveSeries upserts a fetched history series into the cache.
func (h *DB) SaveSeries(itemID, city string, timescale int, points []backend.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_history (item_id, city, timescale, bucket_ts, avg_price, item_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id, city, timescale, bucket_ts)
		DO UPDATE SET avg_price = excluded.avg_price,
		              item_count = excluded.item_count,
		              fetched_at = excluded.fetched_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range points {
		if p.Timestamp == "" {
			continue
		}
		if _, err := stmt.Exec(itemID, city, timescale, p.Timestamp, p.AvgPrice, p.ItemCount, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Series returns the cached history series, oldest bucket first. limit 0
// returns all buckets.
func (h *DB) Series(itemID, city string, timescale, limit int) ([]backend.HistoryPoint, error) {
	query := `
		SELECT bucket_ts, avg_price, item_count
		FROM price_history
		WHERE item_id = ? AND city = ? AND timescale = ?
		ORDER BY bucket_ts`
	args := []interface{}{itemID, city, timescale}
	if limit > 0 {
		// Keep the most recent buckets, still returned oldest first.
		query = `
			SELECT bucket_ts, avg_price, item_count FROM (
				SELECT bucket_ts, avg_price, item_count
				FROM price_history
				WHERE item_id = ? AND city = ? AND timescale = ?
				ORDER BY bucket_ts DESC LIMIT ?
			) ORDER BY bucket_ts`
		args = append(args, limit)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []backend.HistoryPoint
	for rows.Next() {
		var p backend.HistoryPoint
		if err := rows.Scan(&p.Timestamp, &p.AvgPrice, &p.ItemCount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// =============================================================================
// GOLD SERIES
// =============================================================================

// SaveGold upserts gold price observations into the cache.
func (h *DB) SaveGold(points []backend.GoldPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO gold_history (ts, price, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (ts) DO UPDATE SET price = excluded.price, fetched_at = excluded.fetched_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range points {
		if p.Timestamp == "" {
			continue
		}
		if _, err := stmt.Exec(p.Timestamp, p.Price, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Gold returns the most recent count gold observations, oldest first.
func (h *DB) Gold(count int) ([]backend.GoldPoint, error) {
	if count <= 0 {
		count = 24
	}
	rows, err := h.db.Query(`
		SELECT ts, price FROM (
			SELECT ts, price FROM gold_history ORDER BY ts DESC LIMIT ?
		) ORDER BY ts`, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []backend.GoldPoint
	for rows.Next() {
		var p backend.GoldPoint
		if err := rows.Scan(&p.Timestamp, &p.Price); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Prune removes rows fetched more than retentionDays ago. 0 keeps all.
func (h *DB) Prune(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	if _, err := h.db.Exec("DELETE FROM price_history WHERE fetched_at < ?", cutoff); err != nil {
		return err
	}
	_, err := h.db.Exec("DELETE FROM gold_history WHERE fetched_at < ?", cutoff)
	return err
}

// Stats reports row counts for diagnostics.
func (h *DB) Stats() (priceRows, goldRows int64, err error) {
	if err = h.db.QueryRow("SELECT COUNT(*) FROM price_history").Scan(&priceRows); err != nil {
		return 0, 0, err
	}
	if err = h.db.QueryRow("SELECT COUNT(*) FROM gold_history").Scan(&goldRows); err != nil {
		return 0, 0, err
	}
	return priceRows, goldRows, nil
}
