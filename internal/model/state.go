// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

// =============================================================================
// BACKEND STATE
// =============================================================================

// BackendState is the delivery lifecycle of an assistant message, from
// local submission through completion or failure. It is tracked both per
// assistant message and globally (the most recent transition), because a
// stale or late event for a superseded message must not corrupt the global
// indicator.
//
// Transitions: idle -> initialized (local send) -> thinking (server ack,
// generation not started) -> writing (first fragment in flight) ->
// complete | failed. A delivery timeout moves initialized -> failed.
type BackendState string

const (
	StateIdle        BackendState = "idle"
	StateInitialized BackendState = "initialized"
	StateThinking    BackendState = "thinking"
	StateWriting     BackendState = "writing"
	StateComplete    BackendState = "complete"
	StateFailed      BackendState = "failed"
)

// String returns the string representation of the state.
func (s BackendState) String() string {
	return string(s)
}

// Valid reports whether the state is one of the known lifecycle states.
func (s BackendState) Valid() bool {
	switch s {
	case StateIdle, StateInitialized, StateThinking, StateWriting, StateComplete, StateFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the state ends a message's lifecycle. A new
// exchange always starts with a fresh message identity.
func (s BackendState) IsTerminal() bool {
	return s == StateComplete || s == StateFailed
}

// Busy reports whether the backend is actively working on a reply.
// While a conversation is busy, new submissions are rejected rather than
// queued: there is a single in-flight exchange per conversation.
func (s BackendState) Busy() bool {
	return s == StateThinking || s == StateWriting
}
