// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - command routing for the tradepost binary.

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command identifies which handler runs for this invocation.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdModels
	CmdExport
	CmdConfig
	CmdKey
	CmdPrice
	CmdGold
	CmdVersion
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	Provider   string
	Model      string
	BackendURL string

	// Command-specific
	Query      string // ask: the question; price: the item query
	File       string // ask: file to include with the question
	Format     string // export: markdown, json, html
	City       string // price: market city
	Count      int    // gold: number of points
	Subcommand string

	// Raw args remaining after global flag parsing
	Raw []string
}

const usageText = `tradepost - game-economy chat assistant for Albion Online

Tradepost talks to a self-hosted backend that wraps local and cloud LLMs
and the Albion Online market APIs. Item references in answers resolve to
real market entities with live labels.

Usage:
  tradepost                    Start the chat TUI (default)
  tradepost ask "question"     Ask a single question (REPL when no question)
  tradepost models             List models available on the backend
  tradepost export [id]        Export a conversation (latest when no id)
  tradepost export list        List stored conversations
  tradepost config [show|get|set|path]  Configuration management
  tradepost key [set|show|delete] PROVIDER  API key management
  tradepost price QUERY        Price history for an item
  tradepost gold               Gold price history
  tradepost version            Print version information
  tradepost help               Show this help

Global flags:
  --provider NAME    Override the chat provider (ollama, openai, anthropic, gemini)
  --model NAME       Override the chat model
  --backend URL      Override the backend base URL
  --json             Machine-readable output where supported
  -q, --quiet        Minimal output
  -v, --verbose      Verbose output

Examples:
  tradepost ask "price of T4 bag in Lymhurst?"
  tradepost ask --file notes.md "summarize my trade notes"
  tradepost export --format html
  tradepost config set chat.model llama3
  tradepost key set openai
  tradepost price "T4 bag" --city Lymhurst
  tradepost gold --count 24

Environment:
  TRADEPOST_BACKEND_URL   Backend base URL (overrides config)
  TRADEPOST_PROVIDER      Chat provider
  TRADEPOST_MODEL         Chat model
`

// Parse reads os.Args and returns the command to run with its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsed := parseGlobalFlags(args)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "ask":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "models", "model":
		return CmdModels, parsed

	case "export":
		parseExportArgs(&parsed, remaining)
		return CmdExport, parsed

	case "config", "cfg":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "key", "keys":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdKey, parsed

	case "price", "p", "history":
		parsePriceArgs(&parsed, remaining)
		return CmdPrice, parsed

	case "gold", "g":
		p := NewArgParser(remaining)
		parsed.Count = p.FlagIntOrDefault("count", 48)
		return CmdGold, parsed

	case "version", "--version":
		return CmdVersion, parsed

	case "help", "--help", "-h":
		return CmdHelp, parsed

	default:
		// Unknown word: treat the whole tail as an ask query, so
		// `tradepost what is the gold price` just works.
		parsed.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsed
	}
}

// parseGlobalFlags strips flags that apply to every command and returns
// what is left for the command-specific parsers.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--provider":
			if i+1 < len(args) {
				i++
				parsed.Provider = args[i]
			}
		case "--model", "-m":
			if i+1 < len(args) {
				i++
				parsed.Model = args[i]
			}
		case "--backend":
			if i+1 < len(args) {
				i++
				parsed.BackendURL = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--provider="):
				parsed.Provider = strings.TrimPrefix(arg, "--provider=")
			case strings.HasPrefix(arg, "--model="):
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--backend="):
				parsed.BackendURL = strings.TrimPrefix(arg, "--backend=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}

func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--file="):
				args.File = strings.TrimPrefix(arg, "--file=")
			case !strings.HasPrefix(arg, "-"):
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

func parseExportArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.Format = p.Flag("format")
}

func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		args.Raw = remaining[1:]
	}
}

func parsePriceArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.City = p.FlagOrDefault("city", "Caerleon")
	args.Query = strings.Join(p.positional, " ")
}

// PrintUsage writes the top-level help text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("tradepost %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
