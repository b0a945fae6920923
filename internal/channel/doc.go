// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channel provides the duplex event channel to the chat backend.
//
// The channel is a single WebSocket connection carrying named JSON event
// envelopes (see the wire package) in both directions. Delivery is ordered
// per socket and at most once per event; the session layer is built on
// those assumptions and re-requests full snapshots after a reconnect
// instead of trying to recover missed events.
//
// The outbound half is exposed as the small Emitter interface so the
// session core can be driven by a fake in tests.
package channel
