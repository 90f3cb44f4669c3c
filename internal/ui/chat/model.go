// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/config"
	"github.com/seralin/tradepost-tui/internal/history"
	"github.com/seralin/tradepost-tui/internal/itemref"
	"github.com/seralin/tradepost-tui/internal/model"
	"github.com/seralin/tradepost-tui/internal/secrets"
	"github.com/seralin/tradepost-tui/internal/storage"
	"github.com/seralin/tradepost-tui/internal/ui/components"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the chat view's send/stream state machine.
type State int

const (
	StateIdle      State = iota // Ready for input
	StateSending                // Request sent, no content yet
	StateStreaming              // Deltas arriving
	StateError                  // Last send failed
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int
	ready  bool

	// Conversation and the in-flight stream
	conversation *model.Conversation
	session      *streamSession
	streamBuffer *StreamingBuffer
	cancelMgr    *cancelManager

	// Backend and stores
	client    *backend.Client
	cfg       *config.Config
	convStore *storage.ConversationStore
	settings  *storage.SettingsStore
	keyStore  *secrets.Store
	histDB    *history.DB

	// Item reference resolution
	refs       *itemref.Refs
	refsNotify chan struct{}

	// Components
	viewport  viewport.Model
	input     textinput.Model
	spin      components.Spinner
	header    *components.Header
	statusBar *components.StatusBar
	errBanner components.ErrorBanner
	msgView   *components.MessageView
	chart     components.PriceChart

	keys KeyMap
}

// Options carries the collaborators the chat view needs. Client and Config
// are required; the stores may be nil (persistence is then skipped).
type Options struct {
	Client    *backend.Client
	Config    *config.Config
	ConvStore *storage.ConversationStore
	Settings  *storage.SettingsStore
	KeyStore  *secrets.Store
	HistoryDB *history.DB
}

// New creates the chat model, resuming the latest conversation when a store
// is available.
func New(theme *styles.Theme, opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the market, e.g. \"price of T4 Bag in Lymhurst\""
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	var conv *model.Conversation
	if opts.ConvStore != nil {
		conv = opts.ConvStore.LoadLatest(cfg.Chat.Provider, cfg.Chat.Model)
	} else {
		conv = model.NewConversation(cfg.Chat.Provider, cfg.Chat.Model)
	}

	notify := make(chan struct{}, 1)
	refs := itemref.NewRefs(opts.Client, func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	header := components.NewHeader(theme)
	header.SetProvider(conv.Provider, conv.Model)

	statusBar := components.NewStatusBar(theme)
	statusBar.Provider = conv.Provider

	m := Model{
		state:        StateIdle,
		theme:        theme,
		conversation: conv,
		streamBuffer: NewStreamingBuffer(),
		cancelMgr:    newCancelManager(),
		client:       opts.Client,
		cfg:          cfg,
		convStore:    opts.ConvStore,
		settings:     opts.Settings,
		keyStore:     opts.KeyStore,
		histDB:       opts.HistoryDB,
		refs:         refs,
		refsNotify:   notify,
		viewport:     vp,
		input:        ti,
		spin:         components.NewSpinner(theme),
		header:       header,
		statusBar:    statusBar,
		errBanner:    components.NewErrorBanner(theme),
		chart:        components.NewPriceChart(theme),
		keys:         DefaultKeyMap(),
	}
	m.msgView = components.NewMessageView(theme, refs, 80)
	m.msgView.Compact = cfg.UI.CompactMode
	m.msgView.ShowToolActivity = cfg.UI.ShowToolActivity

	// Resumed history may already mention items.
	for _, msg := range conv.Messages {
		refs.Observe(context.Background(), msg.Content)
	}

	return m
}

// Init starts the blink cursor and the item-reference refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, awaitRefsCmd(m.refsNotify))
}

// Busy reports whether a send is in flight.
func (m Model) Busy() bool {
	return m.state == StateSending || m.state == StateStreaming
}

// State exposes the current state for tests.
func (m Model) State() State {
	return m.state
}

// Conversation exposes the active conversation.
func (m Model) Conversation() *model.Conversation {
	return m.conversation
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput sends the input box content: slash commands are dispatched,
// everything else becomes a chat turn.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	m.input.Reset()
	m.errBanner.Dismiss()

	m.conversation.AddUserMessage(content)
	m.refs.Observe(context.Background(), content)
	assistant := m.conversation.AddAssistantMessage()

	req := backend.ChatRequest{
		Provider: m.conversation.Provider,
		Model:    m.conversation.Model,
		Messages: chatMessages(m.conversation),
	}
	if m.keyStore != nil && req.Provider != "ollama" {
		if key, err := m.keyStore.GetKey(req.Provider); err == nil {
			req.APIKey = key
		}
	}

	m.streamBuffer.Reset()
	session, startCmd := m.startStream(req, assistant.ID)
	m.session = session
	m.state = StateSending
	m.statusBar.SetStatus(components.StatusSending)
	m.updateViewport()

	return m, tea.Batch(
		startCmd,
		awaitStreamCmd(session),
		streamTickCmd(),
		m.spin.Start("Thinking"),
	)
}

// chatMessages flattens the conversation into the wire format, skipping
// system notices and the trailing in-progress assistant message.
func chatMessages(conv *model.Conversation) []backend.ChatMessage {
	out := make([]backend.ChatMessage, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleSystem || msg.IsStreaming {
			continue
		}
		out = append(out, backend.ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return out
}

// =============================================================================
// VIEWPORT
// =============================================================================

// updateViewport re-renders the conversation into the viewport and keeps
// the latest message visible.
func (m *Model) updateViewport() {
	var b strings.Builder
	for i, msg := range m.conversation.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.msgView.Render(msg))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()

	m.statusBar.SetCounts(len(m.conversation.Messages), m.refs.Labels.PendingCount())
}

// systemNotice appends a system message and refreshes the viewport.
func (m *Model) systemNotice(text string) {
	m.conversation.AddSystemMessage(text)
	m.updateViewport()
}

// =============================================================================
// SIZING
// =============================================================================

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.errBanner.SetWidth(width)
	m.msgView.SetWidth(width - 2)
	chartWidth := width - 10
	if chartWidth > 60 {
		chartWidth = 60
	}
	m.chart.SetWidth(chartWidth)

	chrome := headerHeight(m) + inputHeight + statusHeight
	vpHeight := height - chrome
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4
	m.updateViewport()
}

const (
	inputHeight  = 1
	statusHeight = 1
)

func headerHeight(m *Model) int {
	if m.width < 60 {
		return 1
	}
	return 4
}

// =============================================================================
// MISC
// =============================================================================

// statusLine formats a one-line status summary for the /status command.
func (m *Model) statusLine() string {
	var sb strings.Builder
	sb.WriteString("Status:\n")
	fmt.Fprintf(&sb, "  Backend: %s\n", m.client.BaseURL())
	fmt.Fprintf(&sb, "  Provider: %s\n", m.conversation.Provider)
	fmt.Fprintf(&sb, "  Model: %s\n", m.conversation.Model)
	fmt.Fprintf(&sb, "  Messages: %d\n", len(m.conversation.Messages))
	if m.histDB != nil {
		priceRows, goldRows, err := m.histDB.Stats()
		if err == nil {
			fmt.Fprintf(&sb, "  History cache: %d price rows, %d gold rows\n", priceRows, goldRows)
		}
	}
	return sb.String()
}
