// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot question and readline REPL.
//
// Command: ask [question]
//
// Examples:
//   tradepost ask "price of T4 bag in Lymhurst?"
//   tradepost ask --file notes.md "summarize my trade notes"
//   tradepost ask                 (starts the readline REPL)
//
// With a TTY the full response is rendered as markdown with resolved item
// labels; piped output gets the raw streamed text.

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/itemref"
	"github.com/seralin/tradepost-tui/internal/model"
	"github.com/seralin/tradepost-tui/internal/render"
	"github.com/seralin/tradepost-tui/internal/secrets"
)

// maxFileSize bounds --file includes (50KB).
const maxFileSize = 50 * 1024

// maxPhraseResolves bounds how many distinct phrases a single answer may
// resolve against the backend.
const maxPhraseResolves = 16

// =============================================================================
// SESSION SETUP
// =============================================================================

// askSession carries everything a CLI chat turn needs.
type askSession struct {
	cfg    *config.Config
	client *backend.Client
	conv   *model.Conversation
	apiKey string
	quiet  bool
}

func newAskSession(args Args) (*askSession, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if args.BackendURL != "" {
		cfg.Backend.BaseURL = args.BackendURL
	}
	if args.Provider != "" {
		cfg.Chat.Provider = args.Provider
	}
	if args.Model != "" {
		cfg.Chat.Model = args.Model
	}

	client := backend.New(cfg.Backend.BaseURL)
	if !client.IsConfigured() {
		return nil, backend.ErrNoBaseURL
	}

	s := &askSession{
		cfg:    cfg,
		client: client,
		conv:   model.NewConversation(cfg.Chat.Provider, cfg.Chat.Model),
		quiet:  args.Quiet,
	}

	// Cloud providers need the stored API key; ollama does not.
	if cfg.Chat.Provider != "ollama" {
		if dir, err := secrets.DefaultDir(); err == nil {
			if store, err := secrets.Open(dir); err == nil {
				if key, err := store.GetKey(cfg.Chat.Provider); err == nil {
					s.apiKey = key
				}
			}
		}
	}
	return s, nil
}

// =============================================================================
// ONE-SHOT ASK
// =============================================================================

// HandleAsk runs the ask command: a single question when one is given,
// otherwise the interactive REPL on a TTY.
func HandleAsk(args Args) {
	session, err := newAskSession(args)
	if err != nil {
		fail(err)
	}

	question := args.Query
	if args.File != "" {
		include, err := readFileForContext(args.File)
		if err != nil {
			fail(err)
		}
		question = strings.TrimSpace(question + "\n\n" + include)
	}

	if question == "" {
		if !IsTTY() {
			fmt.Fprintln(os.Stderr, "no question given and stdin is not a terminal")
			os.Exit(1)
		}
		runREPL(session)
		return
	}

	if err := session.turn(context.Background(), question); err != nil {
		fail(err)
	}
}

// turn sends one user message and writes the response to stdout.
func (s *askSession) turn(ctx context.Context, question string) error {
	s.conv.AddUserMessage(question)

	req := backend.ChatRequest{
		Provider: s.conv.Provider,
		Model:    s.conv.Model,
		Stream:   true,
		Messages: backend.MessagesFromConversation(s.conv),
		APIKey:   s.apiKey,
	}

	tty := IsStdoutTTY()
	if tty && !s.quiet {
		fmt.Fprintf(os.Stderr, "%s/%s thinking...\n", s.conv.Provider, s.conv.Model)
	}

	var full strings.Builder
	var streamErr error
	err := s.client.ChatStream(ctx, req, func(ev backend.StreamEvent) {
		switch ev.Type {
		case backend.EventDelta:
			full.WriteString(ev.Text)
			if !tty {
				fmt.Print(ev.Text)
			}
		case backend.EventDone:
			if ev.Text != "" {
				full.Reset()
				full.WriteString(ev.Text)
			}
		case backend.EventError:
			streamErr = fmt.Errorf("backend: %s", ev.Message)
		}
	})
	if err != nil {
		return err
	}
	if streamErr != nil {
		return streamErr
	}

	response := full.String()
	s.conv.AddAssistantMessage().Finalize(response, nil)

	if tty {
		fmt.Print(renderResponse(context.Background(), s.client, response))
	} else {
		fmt.Println()
	}
	return nil
}

// =============================================================================
// REPL
// =============================================================================

// runREPL is the interactive loop: liner for input history, one streamed
// turn per line, conversation context carried across turns.
func runREPL(s *askSession) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	if !s.quiet {
		fmt.Printf("tradepost %s/%s - :new resets, :quit exits\n", s.conv.Provider, s.conv.Model)
	}

	for {
		input, err := line.Prompt("tradepost> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println()
				break
			}
			break // io.EOF on ctrl+d
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":quit", ":q", ":exit":
			saveREPLHistory(line, historyPath)
			return
		case ":new", ":clear":
			s.conv = model.NewConversation(s.conv.Provider, s.conv.Model)
			fmt.Println("started a new conversation")
			continue
		}

		if err := s.turn(context.Background(), input); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	saveREPLHistory(line, historyPath)
}

func replHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ask_history")
}

func saveREPLHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// =============================================================================
// OUTPUT RENDERING
// =============================================================================

// renderResponse annotates item references and renders markdown for
// terminal display. Any failure falls back to the raw text.
func renderResponse(ctx context.Context, client *backend.Client, response string) string {
	annotated := annotateItems(ctx, client, response)

	md := render.NewMarkdown(TerminalWidth())
	return md.Render(annotated)
}

// labelMap is a static Labeler built from one FetchLabels round trip.
type labelMap map[string]backend.ItemLabel

func (m labelMap) Label(id string) backend.ItemLabel {
	if l, ok := m[id]; ok {
		return l
	}
	return backend.ItemLabel{ID: id}
}

// annotateItems resolves item references in text synchronously: candidate
// tiered phrases go through resolve_item, then every located ID gets its
// display label. Unlike the TUI this blocks, which is fine for a one-shot.
func annotateItems(ctx context.Context, client *backend.Client, text string) string {
	resolved := make(map[string]string)

	phrases := itemref.CandidatePhrases(text, nil)
	if len(phrases) > maxPhraseResolves {
		phrases = phrases[:maxPhraseResolves]
	}
	for _, phrase := range phrases {
		matches, err := client.ResolveItem(ctx, phrase, 1)
		if err != nil || len(matches) == 0 {
			continue
		}
		resolved[phrase] = itemref.NormalizeID(matches[0].UniqueName)
	}

	ids := itemref.CanonicalIDs(text)
	for _, m := range itemref.Scan(text, resolved) {
		ids = append(ids, m.ItemID)
	}
	if len(ids) == 0 {
		return text
	}

	seen := make(map[string]bool, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	labels, err := client.FetchLabels(ctx, unique)
	if err != nil {
		return text
	}
	byID := make(labelMap, len(labels))
	for _, l := range labels {
		byID[l.ID] = l
	}
	return render.Annotate(text, resolved, byID)
}

// =============================================================================
// HELPERS
// =============================================================================

// readFileForContext reads a file and wraps it for inclusion in a prompt.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return "", fmt.Errorf("%s is too large to include (%d bytes, limit %d)", path, info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return fmt.Sprintf("File %s:\n```\n%s\n```", filepath.Base(path), string(data)), nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
