// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// key.go - API key management for cloud providers.
//
// Command: key [set|show|delete|list] PROVIDER
//
// Keys are encrypted at rest and only ever sent to the configured backend.
//
// Examples:
//   tradepost key set openai          Prompt for the key (hidden input)
//   tradepost key show openai         Confirm a key is stored
//   tradepost key delete openai
//   tradepost key list

package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/secrets"
)

// HandleKey dispatches key subcommands.
func HandleKey(args Args) {
	dir, err := secrets.DefaultDir()
	if err != nil {
		fail(err)
	}
	store, err := secrets.Open(dir)
	if err != nil {
		fail(err)
	}

	sub := args.Subcommand
	provider := ""
	if len(args.Raw) > 1 {
		provider = strings.ToLower(args.Raw[1])
	}

	switch sub {
	case "set":
		requireProvider(provider)
		key, err := promptSecret(fmt.Sprintf("API key for %s: ", provider))
		if err != nil {
			fail(err)
		}
		if key == "" {
			fail(fmt.Errorf("empty key"))
		}
		if err := store.SetKey(provider, key); err != nil {
			fail(err)
		}
		fmt.Printf("stored key for %s\n", provider)

	case "show":
		requireProvider(provider)
		key, err := store.GetKey(provider)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s: %s\n", provider, maskKey(key))

	case "delete", "rm":
		requireProvider(provider)
		if err := store.DeleteKey(provider); err != nil {
			fail(err)
		}
		fmt.Printf("deleted key for %s\n", provider)

	case "", "list":
		providers := store.Providers()
		if len(providers) == 0 {
			fmt.Println("no stored keys; add one with `tradepost key set PROVIDER`")
			return
		}
		for _, p := range providers {
			fmt.Println(p)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown key subcommand %q\n", sub)
		os.Exit(1)
	}
}

func requireProvider(provider string) {
	if provider == "" {
		fmt.Fprintln(os.Stderr, "usage: tradepost key set|show|delete PROVIDER")
		os.Exit(1)
	}
	if !slices.Contains(backend.Providers, provider) {
		fmt.Fprintf(os.Stderr, "unknown provider %q (want one of %s)\n",
			provider, strings.Join(backend.Providers, ", "))
		os.Exit(1)
	}
}

// promptSecret reads a line without echo when stdin is a TTY.
func promptSecret(prompt string) (string, error) {
	if !IsTTY() {
		return "", fmt.Errorf("refusing to read a secret from a non-terminal stdin")
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// maskKey shows just enough of a key to identify it.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
