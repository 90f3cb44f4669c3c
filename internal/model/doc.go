// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// A Conversation is an append-only ordered sequence of Messages. At most one
// assistant message is in progress (streaming) at a time; it is rewritten
// wholesale as deltas arrive and frozen when the stream finishes.
package model
