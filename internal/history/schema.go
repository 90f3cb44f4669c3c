// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

// Schema creates the price history tables.
const Schema = `
CREATE TABLE IF NOT EXISTS price_history (
	item_id    TEXT    NOT NULL,
	city       TEXT    NOT NULL,
	timescale  INTEGER NOT NULL,
	bucket_ts  TEXT    NOT NULL,
	avg_price  REAL    NOT NULL,
	item_count INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (item_id, city, timescale, bucket_ts)
);

CREATE INDEX IF NOT EXISTS idx_price_history_series
	ON price_history (item_id, city, timescale, bucket_ts);

CREATE TABLE IF NOT EXISTS gold_history (
	ts         TEXT    NOT NULL PRIMARY KEY,
	price      INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL
);
`
