// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
	"github.com/sprouts-ai/sprouts-tui/internal/session"
	"github.com/sprouts-ai/sprouts-tui/internal/ui/styles"
)

// =============================================================================
// INPUT MODES
// =============================================================================

type inputMode int

const (
	modeCompose inputMode = iota
	modeRename
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It observes the
// session through snapshot accessors and the coalescing update signal;
// it never reaches into session-owned state directly.
type Model struct {
	session *session.Session
	theme   *styles.Theme
	keys    KeyMap

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	mode inputMode

	sidebarVisible bool
	sidebarFocused bool
	sidebarCursor  int
	sidebarRows    []sidebarRow

	// Session snapshot, refreshed on every sessionUpdateMsg.
	conversation *model.Conversation
	global       model.BackendState
	msgStates    map[string]model.BackendState
	models       []model.ModelInfo
	current      model.ModelInfo

	// Render pacing state (see streaming.go).
	pendingRender bool
	ticking       bool

	statusNote string
	quitting   bool
}

// New creates a chat model bound to a session. showSidebar controls
// whether the conversation sidebar starts open; narrow terminals force
// it closed regardless.
func New(sess *session.Session, theme *styles.Theme, showSidebar bool) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 0
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	return Model{
		session:        sess,
		theme:          theme,
		keys:           DefaultKeyMap(),
		input:          input,
		spin:           spin,
		sidebarVisible: showSidebar,
		global:         model.StateIdle,
	}
}

// Init starts the update listener and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForUpdate(),
		textinput.Blink,
	)
}

// waitForUpdate blocks on the session's update signal and converts each
// firing into a sessionUpdateMsg. The command is re-issued after every
// delivery, keeping exactly one listener alive.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.session.Updates()
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return channelClosedMsg{}
		}
		return sessionUpdateMsg{}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionUpdateMsg:
		m.refreshSnapshot()
		cmds := []tea.Cmd{m.waitForUpdate()}
		if m.busy() {
			// Streaming: coalesce repaints onto the frame clock.
			m.pendingRender = true
			if !m.ticking {
				m.ticking = true
				cmds = append(cmds, renderTickCmd())
			}
			if cmd := m.ensureSpinner(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		} else {
			m.refreshViewport()
		}
		return m, tea.Batch(cmds...)

	case renderTickMsg:
		m.ticking = false
		if m.pendingRender {
			m.pendingRender = false
			m.refreshViewport()
		}
		if m.busy() {
			m.ticking = true
			return m, renderTickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case channelClosedMsg:
		m.statusNote = "connection closed"
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards a message to whichever component has focus.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if !m.sidebarFocused {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) busy() bool {
	return m.global.Busy()
}

// ensureSpinner starts the spinner tick chain when streaming begins.
func (m *Model) ensureSpinner() tea.Cmd {
	return m.spin.Tick
}

// =============================================================================
// SNAPSHOT REFRESH
// =============================================================================

// refreshSnapshot re-reads all observable session state.
func (m *Model) refreshSnapshot() {
	m.conversation = m.session.Conversation()
	m.global = m.session.Global()
	m.msgStates = m.session.MessageStates()
	m.models = m.session.Models()
	m.current = m.session.CurrentModel()
	m.sidebarRows = flattenTree(m.session.Tree())
	m.clampSidebarCursor()
}

// =============================================================================
// RESIZE
// =============================================================================

// Reserved rows around the viewport. Kept conservative so the input
// area never clips on short terminals.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		m.sidebarVisible = false
		m.sidebarFocused = false
	}

	contentWidth := width
	if m.showSidebar() {
		contentWidth -= sidebarWidth
	}
	contentHeight := height - headerHeight - inputHeight - statusHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	if contentWidth < 20 {
		contentWidth = 20
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = contentHeight
	}
	m.input.Width = contentWidth - 6

	// Glamour wraps at render time, so the renderer follows the viewport.
	wrap := contentWidth - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = renderer
	}
}

func (m Model) showSidebar() bool {
	return m.sidebarVisible && m.theme.GetLayoutMode() != styles.LayoutNarrow
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		if !m.sidebarVisible {
			m.sidebarFocused = false
			m.input.Focus()
		}
		m.handleResize(m.width, m.height)
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.FocusSwitch):
		if m.showSidebar() {
			m.sidebarFocused = !m.sidebarFocused
			if m.sidebarFocused {
				m.input.Blur()
			} else {
				m.input.Focus()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleModel):
		return m.cycleModel()

	case key.Matches(msg, m.keys.NewChat):
		// The server owns conversation creation; asking for the default
		// with no id yields a fresh one when none exists.
		if err := m.session.OpenDefault(); err != nil {
			m.statusNote = "new chat failed: " + err.Error()
		}
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		if m.mode == modeCompose && m.conversation != nil {
			m.mode = modeRename
			m.input.SetValue(m.conversation.ConversationName)
			m.input.Placeholder = "New conversation name..."
			m.input.Focus()
			m.sidebarFocused = false
		}
		return m, nil
	}

	if m.sidebarFocused {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSidebarCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveSidebarCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if m.sidebarCursor < len(m.sidebarRows) {
			row := m.sidebarRows[m.sidebarCursor]
			if row.selectable() {
				if err := m.session.Open(row.conversation.ConversationID); err != nil {
					m.statusNote = "open failed: " + err.Error()
				}
				m.sidebarFocused = false
				m.input.Focus()
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		if m.mode == modeRename {
			return m.submitRename()
		}
		return m.submitMessage()

	case key.Matches(msg, m.keys.Stop):
		if m.mode == modeRename {
			m.mode = modeCompose
			m.input.SetValue("")
			m.input.Placeholder = "Type a message..."
			return m, nil
		}
		if m.busy() {
			if err := m.session.Stop(); err != nil {
				m.statusNote = "stop failed: " + err.Error()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitMessage() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	err := m.session.SendMessage(text)
	switch err {
	case nil:
		m.input.SetValue("")
		m.statusNote = ""
	case session.ErrBusy:
		m.statusNote = "still responding, esc to stop"
	case session.ErrNoConversation:
		m.statusNote = "no conversation loaded yet"
	case session.ErrNoModel:
		m.statusNote = "waiting for the model list"
	default:
		// Sent optimistically but the write failed; the delivery timer
		// will mark the exchange. Keep the cleared input.
		m.input.SetValue("")
		m.statusNote = "send failed: " + err.Error()
	}
	return m, nil
}

func (m Model) submitRename() (tea.Model, tea.Cmd) {
	name := m.input.Value()
	m.mode = modeCompose
	m.input.SetValue("")
	m.input.Placeholder = "Type a message..."
	if m.conversation != nil && name != "" {
		if err := m.session.Rename(m.conversation.ConversationID, name); err != nil {
			m.statusNote = "rename failed: " + err.Error()
		}
	}
	return m, nil
}

// cycleModel advances the current model to the next advertised one.
func (m Model) cycleModel() (tea.Model, tea.Cmd) {
	if len(m.models) == 0 {
		return m, nil
	}
	next := 0
	for i, info := range m.models {
		if info.ModelID == m.current.ModelID {
			next = (i + 1) % len(m.models)
			break
		}
	}
	if err := m.session.SetModel(m.models[next].ModelID); err != nil {
		m.statusNote = "model switch failed: " + err.Error()
	}
	return m, nil
}
