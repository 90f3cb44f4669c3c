// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the tradepost backend: streaming
// and one-shot chat completions, item label lookup, MCP tool calls, and
// market data endpoints.
//
// The backend is an external collaborator; this package speaks its wire
// formats and maps its failures onto Go errors, nothing more. Error bodies
// from the backend are surfaced verbatim so the UI can show exactly what
// the server said.
package backend
