// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant markdown into annotated terminal output.
// Annotation replaces recognized item references with their resolved labels
// before the markdown is styled, leaving code spans and code blocks
// untouched. Styling itself goes through glamour.
package render
