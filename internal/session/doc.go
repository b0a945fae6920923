// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation synchronization core: the
// client-side state machine that keeps a conversation view consistent
// with an event-driven chat backend.
//
// # Key Types
//
//   - Session: single writer for all synchronized state. Dispatches
//     inbound server events in arrival order, applies user operations
//     under one lock, and exposes snapshot accessors plus a coalescing
//     update signal for the UI.
//   - Tracker: delivery lifecycle supervision. One record per sent
//     exchange, one global state mirroring only the in-flight exchange,
//     and a delivery timer per exchange that is retired the moment the
//     server acknowledges.
//   - Directory: the server-owned conversation listing and its grouped
//     sidebar tree.
//
// # Synchronization Model
//
// The conversation on screen is an optimistic projection. Sending
// appends a user message and an empty assistant placeholder locally
// before the server ever responds; streamed fragments then fill the
// placeholder in by message id. The server remains authoritative: any
// full snapshot it pushes replaces the local projection entirely.
//
// Lifecycle state is deliberately split in two. Each exchange keeps its
// own record forever (until the conversation is switched), while the
// global state follows only the current in-flight exchange. Stops and
// timeouts release the global state to idle; trailing events for an
// abandoned exchange still update its record but can never pull the
// global state back.
package session
