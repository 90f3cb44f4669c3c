// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seralin/tradepost-tui/internal/ui/components"
)

// Update is the Bubble Tea update loop for the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m, nil

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case RefsUpdatedMsg:
		// Background item resolution landed: re-render and keep listening.
		m.updateViewport()
		return m, awaitRefsCmd(m.refsNotify)

	case ModelsLoadedMsg:
		if msg.Err != nil {
			m.errBanner.Show(msg.Err)
		} else if len(msg.Models) == 0 {
			m.systemNotice("No local models found")
		} else {
			var sb strings.Builder
			sb.WriteString("Local models:\n")
			for _, info := range msg.Models {
				fmt.Fprintf(&sb, "  %s", info.Name)
				if info.Size > 0 {
					fmt.Fprintf(&sb, " (%.1fGB)", float64(info.Size)/(1<<30))
				}
				if info.Thinking {
					sb.WriteString(" [thinking]")
				}
				sb.WriteString("\n")
			}
			m.systemNotice(sb.String())
		}
		return m, nil

	case ConversationSavedMsg:
		if msg.Err != nil {
			m.errBanner.Show(msg.Err)
		}
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			m.errBanner.Show(msg.Err)
		} else {
			m.systemNotice("Exported to " + msg.Path)
		}
		return m, nil

	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.errBanner.Show(msg.Err)
		} else {
			title := fmt.Sprintf("%s — %s", msg.ItemID, msg.City)
			m.systemNotice(m.chart.RenderHistory(title, msg.Points))
		}
		return m, nil

	case GoldLoadedMsg:
		if msg.Err != nil {
			m.errBanner.Show(msg.Err)
		} else {
			m.systemNotice(m.chart.RenderGold(msg.Points))
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	}

	// Spinner animation frames and everything else.
	var cmds []tea.Cmd
	if cmd := m.spin.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelMgr.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.errBanner.Visible() {
			m.errBanner.Dismiss()
			return m, nil
		}
		if m.Busy() {
			return m.cancelStream()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.Busy() {
			return m, nil
		}
		return m.submitInput()

	case key.Matches(msg, m.keys.NewChat):
		return handleNewCommand(&m, nil)

	case key.Matches(msg, m.keys.Export):
		return handleExportCommand(&m, nil)

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.ScrollTop):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.ScrollBottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// handleStreamTick flushes buffered tokens into the streaming message and
// reschedules itself while a stream is active.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.Busy() {
		return m, nil
	}

	if content, ok := m.streamBuffer.Flush(); ok {
		if streaming := m.conversation.StreamingMessage(); streaming != nil {
			streaming.AppendDelta(content)
			if m.state == StateSending {
				m.state = StateStreaming
				m.spin.Stop()
				m.statusBar.SetStatus(components.StatusStreaming)
			}
			m.refs.Observe(context.Background(), streaming.Content)
			m.updateViewport()
		}
	}
	return m, streamTickCmd()
}

// handleStreamDone finalizes the assistant message and persists the turn.
func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	streaming := m.conversation.StreamingMessage()
	if streaming == nil || streaming.ID != msg.MessageID {
		return m, nil
	}

	// Drain tokens the tick hasn't flushed yet.
	if content, ok := m.streamBuffer.ForceFlush(); ok {
		streaming.AppendDelta(content)
	}
	if msg.Provider != "" {
		streaming.Provider = msg.Provider
	}
	if msg.Model != "" {
		streaming.Model = msg.Model
	}
	streaming.Finalize(msg.Text, msg.Meta)

	m.state = StateIdle
	m.spin.Stop()
	m.cancelMgr.cancel()
	m.session = nil
	m.statusBar.SetStatus(components.StatusReady)

	m.refs.Observe(context.Background(), streaming.Content)
	m.updateViewport()

	if m.convStore != nil {
		return m, saveConversationCmd(m.convStore, m.conversation)
	}
	return m, nil
}

// handleStreamError surfaces the failure and rolls back an empty assistant
// message so the user can retry cleanly.
func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	// A cancelled stream delivers its terminal event late; by then a new
	// send may already be in flight. Only the current session's events may
	// touch the conversation.
	if m.session == nil || m.session.messageID != msg.MessageID {
		return m, nil
	}

	// A cancel unwinds the read loop with context.Canceled; that is not an
	// error worth showing.
	userCancelled := errors.Is(msg.Err, context.Canceled)

	if content, ok := m.streamBuffer.ForceFlush(); ok {
		if streaming := m.conversation.StreamingMessage(); streaming != nil {
			streaming.AppendDelta(content)
		}
	}

	if streaming := m.conversation.StreamingMessage(); streaming != nil {
		if streaming.IsEmpty() {
			m.conversation.DropStreamingMessage()
		} else {
			streaming.Finalize("", nil)
		}
	}

	m.spin.Stop()
	m.cancelMgr.cancel()
	m.session = nil

	if userCancelled {
		m.state = StateIdle
		m.statusBar.SetStatus(components.StatusReady)
	} else {
		m.state = StateError
		m.statusBar.SetStatus(components.StatusError)
		m.errBanner.Show(msg.Err)
	}
	m.updateViewport()
	return m, nil
}

// cancelStream aborts the in-flight request; the stream goroutine will
// observe the cancelled context and deliver the terminal event.
func (m Model) cancelStream() (tea.Model, tea.Cmd) {
	m.cancelMgr.cancel()
	return m, nil
}

// handleConfigReloaded applies a hot-reloaded configuration. Provider and
// model selection only move for an empty conversation; switching them under
// an ongoing exchange would mislabel its messages.
func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}
	m.cfg = msg.Config
	m.msgView.Compact = m.cfg.UI.CompactMode
	m.msgView.ShowToolActivity = m.cfg.UI.ShowToolActivity

	if m.conversation.IsEmpty() && !m.Busy() {
		m.conversation.Provider = m.cfg.Chat.Provider
		m.conversation.Model = m.cfg.Chat.Model
		m.header.SetProvider(m.conversation.Provider, m.conversation.Model)
		m.statusBar.Provider = m.conversation.Provider
	}

	m.systemNotice("configuration reloaded")
	return m, nil
}
