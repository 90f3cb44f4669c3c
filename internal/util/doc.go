// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the tradepost client:
// atomic file writes for persistence and rune/width-aware string handling
// for terminal rendering.
package util
