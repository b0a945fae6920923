// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
	"github.com/sprouts-ai/sprouts-tui/internal/session"
	"github.com/sprouts-ai/sprouts-tui/internal/util"
)

// =============================================================================
// SIDEBAR ROWS
// =============================================================================

// sidebarRow is one visible line in the sidebar: either a group header
// or a selectable conversation.
type sidebarRow struct {
	label        string
	depth        int
	conversation *model.Conversation
}

func (r sidebarRow) selectable() bool {
	return r.conversation != nil
}

// flattenTree turns the grouped directory tree into display rows,
// groups first at every level, depth-first.
func flattenTree(nodes []*session.Node) []sidebarRow {
	var rows []sidebarRow
	var walk func(nodes []*session.Node, depth int)
	walk = func(nodes []*session.Node, depth int) {
		for _, n := range nodes {
			if n.IsGroup() {
				rows = append(rows, sidebarRow{label: n.Name, depth: depth})
				walk(n.Children, depth+1)
				continue
			}
			rows = append(rows, sidebarRow{
				label:        n.Name,
				depth:        depth,
				conversation: n.Conversation,
			})
		}
	}
	walk(nodes, 0)
	return rows
}

// =============================================================================
// SIDEBAR RENDERING
// =============================================================================

const sidebarWidth = 28

func (m Model) renderSidebar(height int) string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("conversations"))
	b.WriteString("\n")

	if len(m.sidebarRows) == 0 {
		b.WriteString(m.theme.ShortcutDesc.Render("(none yet)"))
	}

	// Row budget: title takes one line.
	visible := height - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.sidebarCursor >= visible {
		start = m.sidebarCursor - visible + 1
	}

	for i := start; i < len(m.sidebarRows) && i-start < visible; i++ {
		row := m.sidebarRows[i]
		indent := strings.Repeat("  ", row.depth)
		label := util.TruncateWidth(row.label, sidebarWidth-2-len(indent))

		var line string
		switch {
		case !row.selectable():
			line = indent + m.theme.SidebarGroup.Render(label+"/")
		case m.sidebarFocused && i == m.sidebarCursor:
			line = indent + m.theme.SidebarSelected.Render(label)
		case m.activeConversationID(row):
			line = indent + m.theme.SidebarSelected.Render(label)
		default:
			line = indent + m.theme.SidebarItem.Render(label)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return m.theme.Sidebar.Width(sidebarWidth).Height(height).Render(
		strings.TrimRight(b.String(), "\n"))
}

func (m Model) activeConversationID(row sidebarRow) bool {
	return m.conversation != nil &&
		row.conversation.ConversationID == m.conversation.ConversationID
}

// moveSidebarCursor moves the cursor by delta, skipping group headers
// so the cursor always lands on a conversation.
func (m *Model) moveSidebarCursor(delta int) {
	if len(m.sidebarRows) == 0 {
		return
	}
	i := m.sidebarCursor
	for {
		i += delta
		if i < 0 || i >= len(m.sidebarRows) {
			return
		}
		if m.sidebarRows[i].selectable() {
			m.sidebarCursor = i
			return
		}
	}
}

// clampSidebarCursor keeps the cursor on a selectable row after the
// tree has been rebuilt.
func (m *Model) clampSidebarCursor() {
	if len(m.sidebarRows) == 0 {
		m.sidebarCursor = 0
		return
	}
	if m.sidebarCursor >= len(m.sidebarRows) {
		m.sidebarCursor = len(m.sidebarRows) - 1
	}
	if !m.sidebarRows[m.sidebarCursor].selectable() {
		for i := range m.sidebarRows {
			if m.sidebarRows[i].selectable() {
				m.sidebarCursor = i
				return
			}
		}
		m.sidebarCursor = 0
	}
}
