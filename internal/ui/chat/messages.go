// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

// sessionUpdateMsg signals that observable session state changed and the
// snapshot should be re-read. Signals coalesce inside the session, so one
// message may cover many changes.
type sessionUpdateMsg struct{}

// channelClosedMsg signals that the server event queue closed and no
// further updates will arrive.
type channelClosedMsg struct{}
