// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - list models available on the backend.
//
// Command: models
//
// Examples:
//   tradepost models
//   tradepost models --json

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/config"
)

// HandleModels prints the models the backend's local ollama instance serves.
func HandleModels(args Args) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	models, err := client.ListOllamaModels(ctx)
	if err != nil {
		fail(err)
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(models); err != nil {
			fail(err)
		}
		return
	}

	if len(models) == 0 {
		fmt.Println("no local models; pull one with `ollama pull llama3`")
		return
	}

	active := cfg.Chat.Model
	for _, m := range models {
		marker := "  "
		if m.Name == active {
			marker = "* "
		}
		line := marker + m.Name
		if m.Size > 0 {
			line += fmt.Sprintf("  %.1f GB", float64(m.Size)/(1024*1024*1024))
		}
		if m.Thinking {
			line += "  [thinking]"
		}
		fmt.Println(line)
	}
}
