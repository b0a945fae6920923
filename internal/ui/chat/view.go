// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
	"github.com/sprouts-ai/sprouts-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	body := m.viewport.View()
	if m.showSidebar() {
		sidebar := m.renderSidebar(m.viewport.Height)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
	}
	b.WriteString(body)
	b.WriteString("\n")

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("sprouts")

	name := "(no conversation)"
	if m.conversation != nil {
		name = m.conversation.DisplayName()
	}
	name = util.TruncateWidth(name, m.width/2)

	modelLabel := ""
	if !m.current.IsZero() {
		label := m.current.Name
		if label == "" {
			label = m.current.ModelID
		}
		modelLabel = m.theme.HeaderModel.Render(label)
	}

	left := title + "  " + name
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(modelLabel) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(
		left + strings.Repeat(" ", gap) + modelLabel)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript and keeps the view pinned to
// the bottom while new content streams in.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript() string {
	if m.conversation == nil {
		return m.theme.ShortcutDesc.Render("Connecting...")
	}
	if m.conversation.IsEmpty() {
		return m.theme.ShortcutDesc.Render("No messages yet. Say something.")
	}

	var parts []string
	for i := range m.conversation.Messages {
		parts = append(parts, m.renderMessage(&m.conversation.Messages[i]))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(msg *model.Message) string {
	switch msg.Role {
	case model.RoleUser:
		return m.theme.UserLabel.Render("You") + "\n" +
			m.theme.UserBubble.Render(msg.Content)
	case model.RoleAssistant:
		return m.renderAssistant(msg)
	default:
		return m.theme.ShortcutDesc.Render(msg.Role.DisplayName()) + "\n" +
			m.theme.AssistantBubble.Render(msg.Content)
	}
}

func (m Model) renderAssistant(msg *model.Message) string {
	label := m.theme.AssistantLabel.Render("Assistant")
	state := m.msgStates[msg.MessageID]

	if state == model.StateFailed {
		body := msg.Content
		if body == "" {
			body = m.theme.FailedNote.Render("message not delivered")
		} else {
			body += "\n" + m.theme.FailedNote.Render("delivery failed")
		}
		return label + "\n" + m.theme.FailedBubble.Render(body)
	}

	if msg.IsEmpty() {
		switch state {
		case model.StateInitialized:
			return label + "\n" + m.theme.AssistantBubble.Render(
				m.theme.ThinkingText.Render("sending..."))
		case model.StateThinking, model.StateWriting:
			return label + "\n" + m.theme.AssistantBubble.Render(
				m.spin.View()+m.theme.ThinkingText.Render(" thinking..."))
		}
	}

	body := m.renderMarkdown(msg.Content)
	if msg.Context != nil && *msg.Context != "" {
		body += "\n" + m.theme.ContextNote.Render(*msg.Context)
	}
	return label + "\n" + m.theme.AssistantBubble.Render(body)
}

// renderMarkdown renders assistant content through glamour, falling back
// to the raw text when rendering fails or no renderer is configured.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	prompt := m.input.View()
	if m.mode == modeRename {
		prompt = m.theme.InputPrompt.Render("rename: ") + prompt
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(prompt)
}

func (m Model) renderStatus() string {
	var left string
	switch {
	case m.statusNote != "":
		left = m.theme.StatusError.Render(m.statusNote)
	case m.busy():
		left = m.theme.StatusState.Render(m.global.String())
	default:
		left = m.theme.ShortcutDesc.Render("ready")
	}

	shortcuts := []string{
		m.shortcut("enter", "send"),
		m.shortcut("esc", "stop"),
		m.shortcut("tab", "focus"),
		m.shortcut("ctrl+b", "sidebar"),
		m.shortcut("ctrl+n", "new"),
		m.shortcut("ctrl+o", "model"),
		m.shortcut("ctrl+r", "rename"),
		m.shortcut("ctrl+c", "quit"),
	}
	right := strings.Join(shortcuts, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Drop the shortcut hints on narrow terminals.
		right = ""
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(
		left + strings.Repeat(" ", gap) + right)
}

func (m Model) shortcut(keyName, desc string) string {
	return m.theme.ShortcutKey.Render(keyName) + " " + m.theme.ShortcutDesc.Render(desc)
}
