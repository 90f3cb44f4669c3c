// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/export"
	"github.com/seralin/tradepost-tui/internal/history"
	"github.com/seralin/tradepost-tui/internal/itemref"
	"github.com/seralin/tradepost-tui/internal/model"
	"github.com/seralin/tradepost-tui/internal/storage"
)

// =============================================================================
// STREAM SESSION
// =============================================================================

// streamSession carries terminal events (done/error) from the stream
// goroutine back into the Bubble Tea loop. Delta text bypasses the channel
// and goes through the StreamingBuffer instead.
type streamSession struct {
	messageID string
	events    chan tea.Msg
}

// startStream launches the backend stream in a goroutine and returns the
// session plus the command announcing the start. The previous stream, if
// any, is cancelled.
func (m *Model) startStream(req backend.ChatRequest, messageID string) (*streamSession, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	session := &streamSession{
		messageID: messageID,
		events:    make(chan tea.Msg, 8),
	}

	client := m.client
	buffer := m.streamBuffer
	go func() {
		defer close(session.events)

		err := client.ChatStream(ctx, req, func(ev backend.StreamEvent) {
			switch ev.Type {
			case backend.EventDelta:
				buffer.Write(ev.Text)
			case backend.EventDone:
				session.events <- StreamDoneMsg{
					MessageID: messageID,
					Text:      ev.Text,
					Provider:  ev.Provider,
					Model:     ev.Model,
					Meta:      ev.Meta,
				}
			case backend.EventError:
				session.events <- StreamErrorMsg{
					MessageID: messageID,
					Err:       errors.New(ev.Message),
				}
			}
		})
		if err != nil {
			session.events <- StreamErrorMsg{MessageID: messageID, Err: err}
		}
	}()

	return session, func() tea.Msg {
		return StreamStartMsg{MessageID: messageID, StartTime: time.Now()}
	}
}

// awaitStreamCmd waits for the next terminal event of the session.
func awaitStreamCmd(session *streamSession) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-session.events
		if !ok {
			return nil
		}
		return msg
	}
}

// awaitRefsCmd waits for the next item-reference update notification.
func awaitRefsCmd(notify <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-notify
		return RefsUpdatedMsg{}
	}
}

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

const requestTimeout = 15 * time.Second

// loadModelsCmd fetches the backend's local Ollama model list.
func loadModelsCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		models, err := client.ListOllamaModels(ctx)
		return ModelsLoadedMsg{Models: models, Err: err}
	}
}

// fetchHistoryCmd loads a price history series, preferring the backend and
// falling back to the local cache when the backend is unreachable. Fresh
// series are written through to the cache.
func fetchHistoryCmd(client *backend.Client, db *history.DB, itemID, city string, timescale int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.History(ctx, itemID, city, timescale)
		if err != nil {
			if db != nil {
				if cached, cacheErr := db.Series(itemID, city, timescale, 0); cacheErr == nil && len(cached) > 0 {
					return HistoryLoadedMsg{ItemID: itemID, City: city, Points: cached}
				}
			}
			return HistoryLoadedMsg{ItemID: itemID, City: city, Err: err}
		}

		if db != nil {
			_ = db.SaveSeries(itemID, city, timescale, resp.Data)
		}
		return HistoryLoadedMsg{ItemID: itemID, City: city, Points: resp.Data}
	}
}

// fetchGoldCmd loads the gold price series with the same cache fallback.
func fetchGoldCmd(client *backend.Client, db *history.DB, count int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		points, err := client.Gold(ctx, count)
		if err != nil {
			if db != nil {
				if cached, cacheErr := db.Gold(count); cacheErr == nil && len(cached) > 0 {
					return GoldLoadedMsg{Points: cached}
				}
			}
			return GoldLoadedMsg{Err: err}
		}

		if db != nil {
			_ = db.SaveGold(points)
		}
		return GoldLoadedMsg{Points: points}
	}
}

// =============================================================================
// PERSISTENCE COMMANDS
// =============================================================================

// saveConversationCmd snapshots the conversation to disk.
func saveConversationCmd(store *storage.ConversationStore, conv *model.Conversation) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		path, err := store.Save(conv)
		return ConversationSavedMsg{Path: path, Err: err}
	}
}

// exportConversationCmd writes the conversation in the requested format.
func exportConversationCmd(conv *model.Conversation, format string, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return ExportedMsg{Err: err}
		}
		path, err := export.ExportToFile(conv, exporter, opts)
		return ExportedMsg{Path: path, Err: err}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// commandHandler handles one slash command.
type commandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

var commandHandlers = map[string]commandHandler{
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	"new":    handleNewCommand,
	"n":      handleNewCommand,
	"clear":  handleNewCommand,
	"save":   handleSaveCommand,
	"s":      handleSaveCommand,
	"export": handleExportCommand,
	"e":      handleExportCommand,

	"provider": handleProviderCommand,
	"model":    handleModelCommand,
	"m":        handleModelCommand,
	"models":   handleModelsCommand,
	"key":      handleKeyCommand,

	"price": handlePriceCommand,
	"p":     handlePriceCommand,
	"gold":  handleGoldCommand,
	"g":     handleGoldCommand,

	"status": handleStatusCommand,
}

// handleCommand dispatches a slash command through the registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))

	handler, ok := commandHandlers[name]
	if !ok {
		m.systemNotice("Unknown command '" + content + "'\nType /help for available commands")
		return m, nil
	}
	return handler(&m, parts[1:])
}

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.systemNotice(`Commands:
  /help              Show this help
  /new               Start a new conversation
  /save              Save the conversation
  /export [format]   Export (markdown, html, json)
  /provider <name>   Switch LLM provider (` + strings.Join(backend.Providers, ", ") + `)
  /model <name>      Switch model
  /models            List local Ollama models
  /key <provider> <api-key>  Store an API key
  /price <item> [city]       Price history chart
  /gold              Gold price chart
  /status            Connection and cache status
  /quit              Exit

Keys: enter send, esc cancel stream, ctrl+n new, ctrl+e export, ctrl+c quit`)
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.cancelMgr.cancel()
	m.session = nil
	m.streamBuffer.Reset()
	m.state = StateIdle
	m.spin.Stop()

	var saveCmd tea.Cmd
	if m.convStore != nil && !m.conversation.IsEmpty() {
		saveCmd = saveConversationCmd(m.convStore, m.conversation)
	}
	m.conversation = model.NewConversation(m.conversation.Provider, m.conversation.Model)
	m.updateViewport()
	return *m, saveCmd
}

func handleSaveCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.convStore == nil {
		m.systemNotice("Conversation history is disabled")
		return *m, nil
	}
	return *m, saveConversationCmd(m.convStore, m.conversation)
}

func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	format := m.cfg.Export.DefaultFormat
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	opts := export.DefaultOptions()
	if dir, err := m.cfg.ExportDir(); err == nil {
		opts.OutputDir = dir
	}
	opts.Theme = m.cfg.UI.Theme
	return *m, exportConversationCmd(m.conversation, format, opts)
}

func handleProviderCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.systemNotice("Current provider: " + m.conversation.Provider + "\nUsage: /provider <" + strings.Join(backend.Providers, "|") + ">")
		return *m, nil
	}

	name := strings.ToLower(args[0])
	valid := false
	for _, p := range backend.Providers {
		if p == name {
			valid = true
			break
		}
	}
	if !valid {
		m.systemNotice("Unknown provider '" + name + "'\nValid providers: " + strings.Join(backend.Providers, ", "))
		return *m, nil
	}

	m.conversation.Provider = name
	m.header.SetProvider(name, m.conversation.Model)
	m.statusBar.Provider = name
	m.persistSelection()
	m.systemNotice("Provider switched to " + name)
	return *m, nil
}

func handleModelCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.systemNotice("Current model: " + m.conversation.Model + "\nUsage: /model <name>")
		return *m, nil
	}
	name := args[0]
	m.conversation.Model = name
	m.header.SetProvider(m.conversation.Provider, name)
	m.persistSelection()
	m.systemNotice("Model switched to " + name)
	return *m, nil
}

func handleModelsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, loadModelsCmd(m.client)
}

func handleKeyCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) < 2 {
		m.systemNotice("Usage: /key <provider> <api-key>")
		return *m, nil
	}
	if m.keyStore == nil {
		m.systemNotice("Key store unavailable")
		return *m, nil
	}
	provider := strings.ToLower(args[0])
	if err := m.keyStore.SetKey(provider, args[1]); err != nil {
		m.systemNotice("Failed to store key: " + err.Error())
		return *m, nil
	}
	m.systemNotice("API key stored for " + provider)
	return *m, nil
}

func handlePriceCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.systemNotice("Usage: /price <item-id or phrase> [city]")
		return *m, nil
	}

	city := "Caerleon"
	itemArgs := args
	if len(args) > 1 && !itemref.IsCanonicalID(args[len(args)-1]) {
		city = args[len(args)-1]
		itemArgs = args[:len(args)-1]
	}

	query := strings.Join(itemArgs, " ")
	itemID := itemref.NormalizeID(query)
	if !itemref.IsCanonicalID(itemID) {
		if resolved, ok := m.refs.Resolver.Lookup(itemref.NormalizePhrase(query)); ok {
			itemID = resolved
		} else {
			m.systemNotice("Unknown item '" + query + "'. Mention it in chat first or use a canonical ID like T4_BAG.")
			return *m, nil
		}
	}

	m.systemNotice("Fetching price history for " + itemID + " in " + city + "...")
	return *m, fetchHistoryCmd(m.client, m.histDB, itemID, city, 24)
}

func handleGoldCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.systemNotice("Fetching gold prices...")
	return *m, fetchGoldCmd(m.client, m.histDB, 48)
}

func handleStatusCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.systemNotice(m.statusLine())
	return *m, nil
}

// persistSelection saves the provider/model choice to the settings store.
func (m *Model) persistSelection() {
	if m.settings == nil {
		return
	}
	_ = m.settings.Save(storage.Settings{
		Provider:           m.conversation.Provider,
		Model:              m.conversation.Model,
		LastConversationID: m.conversation.ID,
	})
}
