// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The view is a Bubble Tea model layered over a session.Session. It reads
// session state exclusively through snapshot accessors, triggered by the
// session's coalescing update signal, and forwards user intent (send,
// stop, open, rename, model switch) back as session operations.
//
// # Key Types
//
//   - Model: the Bubble Tea model (viewport transcript, sidebar, input,
//     status bar)
//   - KeyMap: keyboard shortcut bindings
//
// While a reply streams, transcript repaints are coalesced onto a fixed
// 30 fps frame clock so fragment bursts do not thrash the terminal.
package chat
