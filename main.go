// tradepost - terminal chat assistant for the Albion Online economy.
//
// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/cli"
	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/history"
	"github.com/seralin/tradepost-tui/internal/secrets"
	"github.com/seralin/tradepost-tui/internal/storage"
	"github.com/seralin/tradepost-tui/internal/ui/chat"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Program reference so the config watcher can inject reload messages.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdModels:
		cli.HandleModels(args)
	case cli.CmdExport:
		cli.HandleExport(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdKey:
		cli.HandleKey(args)
	case cli.CmdPrice:
		cli.HandlePrice(args)
	case cli.CmdGold:
		cli.HandleGold(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

// runTUI assembles the stores and the backend client, then hands control to
// the Bubble Tea program until the user quits.
func runTUI(args cli.Args) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		cfg = config.Default()
	}
	applyOverrides(cfg, args)

	client := backend.New(cfg.Backend.BaseURL)

	opts := chat.Options{
		Client: client,
		Config: cfg,
	}

	// Storage failures degrade to an in-memory session rather than refusing
	// to start.
	if convStore, err := storage.NewConversationStore(); err == nil {
		opts.ConvStore = convStore
	} else {
		fmt.Fprintf(os.Stderr, "conversation store unavailable: %v\n", err)
	}
	if settings, err := storage.NewSettingsStore(); err == nil {
		opts.Settings = settings
		applySettings(cfg, settings, args)
	}
	if dir, err := secrets.DefaultDir(); err == nil {
		if keyStore, err := secrets.Open(dir); err == nil {
			opts.KeyStore = keyStore
		}
	}
	if cfg.History.Enabled {
		if path, err := cfg.HistoryPath(); err == nil {
			if db, err := history.Open(path); err == nil {
				defer db.Close()
				db.Prune(cfg.History.RetentionDays)
				opts.HistoryDB = db
			} else {
				fmt.Fprintf(os.Stderr, "history cache unavailable: %v\n", err)
			}
		}
	}

	p := tea.NewProgram(
		chat.New(styles.NewTheme(), opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if watcher := startConfigWatcher(); watcher != nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tradepost: %v\n", err)
		os.Exit(1)
	}
}

// applyOverrides layers command-line flags over the loaded configuration.
func applyOverrides(cfg *config.Config, args cli.Args) {
	if args.BackendURL != "" {
		cfg.Backend.BaseURL = args.BackendURL
	}
	if args.Provider != "" {
		cfg.Chat.Provider = args.Provider
	}
	if args.Model != "" {
		cfg.Chat.Model = args.Model
	}
}

// applySettings restores the last session's provider and model selection,
// unless the command line already chose them.
func applySettings(cfg *config.Config, store *storage.SettingsStore, args cli.Args) {
	saved := store.Load()
	if args.Provider == "" && saved.Provider != "" {
		cfg.Chat.Provider = saved.Provider
	}
	if args.Model == "" && saved.Model != "" {
		cfg.Chat.Model = saved.Model
	}
}

// startConfigWatcher hot-reloads the config file into the running program.
func startConfigWatcher() *config.Watcher {
	path, err := config.ConfigPath()
	if err != nil {
		return nil
	}
	watcher, err := config.NewWatcher(path, func(cfg *config.Config) {
		programMu.Lock()
		p := programRef
		programMu.Unlock()
		if p != nil {
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		}
	})
	if err != nil {
		return nil
	}
	if err := watcher.Watch(); err != nil {
		watcher.Close()
		return nil
	}
	return watcher
}
