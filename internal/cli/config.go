// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - configuration inspection and editing.
//
// Command: config [show|get|set|path]
//
// Examples:
//   tradepost config                       Show effective configuration
//   tradepost config get chat.model
//   tradepost config set chat.model llama3
//   tradepost config path

package cli

import (
	"fmt"
	"os"

	"github.com/seralin/tradepost-tui/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(args Args) {
	switch args.Subcommand {
	case "", "show":
		showConfig()

	case "get":
		if len(args.Raw) < 1 {
			fmt.Fprintln(os.Stderr, "usage: tradepost config get KEY")
			os.Exit(1)
		}
		cfg := loadConfigOrDefault()
		val, err := cfg.Get(args.Raw[0])
		if err != nil {
			fail(err)
		}
		fmt.Println(val)

	case "set":
		if len(args.Raw) < 2 {
			fmt.Fprintln(os.Stderr, "usage: tradepost config set KEY VALUE")
			os.Exit(1)
		}
		cfg := loadConfigOrDefault()
		if err := cfg.Set(args.Raw[0], args.Raw[1]); err != nil {
			fail(err)
		}
		if err := cfg.Validate(); err != nil {
			fail(err)
		}
		if err := config.Save(cfg); err != nil {
			fail(err)
		}
		fmt.Printf("%s = %s\n", args.Raw[0], args.Raw[1])

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			fail(err)
		}
		fmt.Println(path)

	default:
		fmt.Fprintf(os.Stderr, "unknown config subcommand %q\n", args.Subcommand)
		os.Exit(1)
	}
}

func loadConfigOrDefault() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.Default()
	}
	return cfg
}

func showConfig() {
	cfg := loadConfigOrDefault()

	fmt.Println("[backend]")
	fmt.Printf("  base_url              = %s\n", cfg.Backend.BaseURL)
	fmt.Printf("  request_timeout_secs  = %d\n", cfg.Backend.RequestTimeoutSecs)
	fmt.Println("[chat]")
	fmt.Printf("  provider              = %s\n", cfg.Chat.Provider)
	fmt.Printf("  model                 = %s\n", cfg.Chat.Model)
	fmt.Println("[ui]")
	fmt.Printf("  theme                 = %s\n", cfg.UI.Theme)
	fmt.Printf("  compact_mode          = %t\n", cfg.UI.CompactMode)
	fmt.Printf("  show_tool_activity    = %t\n", cfg.UI.ShowToolActivity)
	fmt.Println("[export]")
	fmt.Printf("  default_format        = %s\n", cfg.Export.DefaultFormat)
	fmt.Println("[history]")
	fmt.Printf("  enabled               = %t\n", cfg.History.Enabled)
	fmt.Printf("  retention_days        = %d\n", cfg.History.RetentionDays)
}
