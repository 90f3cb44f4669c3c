// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - export stored conversations to disk.
//
// Command: export [list|ID]
//
// Examples:
//   tradepost export                     Export the latest conversation
//   tradepost export list                List stored conversations
//   tradepost export 3f2a... --format html

package cli

import (
	"fmt"

	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/export"
	"github.com/seralin/tradepost-tui/internal/model"
	"github.com/seralin/tradepost-tui/internal/storage"
)

// HandleExport exports a conversation, or lists the stored ones.
func HandleExport(args Args) {
	store, err := storage.NewConversationStore()
	if err != nil {
		fail(err)
	}

	if args.Subcommand == "list" {
		listConversations(store)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	var conv *model.Conversation
	if args.Subcommand != "" {
		conv, err = store.Load(args.Subcommand)
		if err != nil {
			fail(fmt.Errorf("conversation %s: %w", args.Subcommand, err))
		}
	} else {
		conv = store.LoadLatest(cfg.Chat.Provider, cfg.Chat.Model)
		if conv == nil || conv.IsEmpty() {
			fail(fmt.Errorf("no stored conversation to export"))
		}
	}

	format := args.Format
	if format == "" {
		format = cfg.Export.DefaultFormat
	}

	opts := export.DefaultOptions()
	if dir, err := cfg.ExportDir(); err == nil {
		opts.OutputDir = dir
	}
	opts.Theme = cfg.UI.Theme

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		fail(err)
	}
	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("exported to %s\n", path)
}

func listConversations(store *storage.ConversationStore) {
	metas, err := store.List()
	if err != nil {
		fail(err)
	}
	if len(metas) == 0 {
		fmt.Println("no stored conversations")
		return
	}
	for _, m := range metas {
		fmt.Printf("%s  %s  %s/%s  %d msgs  %s\n",
			m.ID, m.UpdatedAt.Format("2006-01-02 15:04"),
			m.Provider, m.Model, m.MessageCount, m.Preview)
	}
}
