// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// RENDER PACING
// =============================================================================

// While the backend is streaming, fragments can arrive far faster than a
// terminal can usefully repaint. Instead of re-rendering the transcript on
// every fragment, updates mark the view dirty and a fixed-rate tick flushes
// at most 30 frames per second. Outside of streaming the flush happens
// immediately, so single updates (a rename, a state flip) never wait a frame.

const frameInterval = time.Second / 30

// renderTickMsg is the frame clock for paced transcript rendering.
type renderTickMsg time.Time

func renderTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return renderTickMsg(t)
	})
}
