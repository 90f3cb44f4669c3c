// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and runs the non-TUI commands.
//
// With no arguments tradepost starts the full-screen chat interface; the
// subcommands here cover everything that makes sense outside it: one-shot
// questions (ask), model discovery (models), conversation export, config
// and API key management, and quick market lookups (price, gold).
package cli
