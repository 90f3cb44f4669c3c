// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view: the Bubble Tea model,
// the streaming state machine, and the item-reference refresh loop.
package chat
