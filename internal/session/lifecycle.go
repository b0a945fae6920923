// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation synchronization core.
package session

import (
	"time"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
)

// DefaultDeliveryTimeout is how long a sent exchange may sit in
// "initialized" before it is declared failed. The server normally
// acknowledges within a fraction of this.
const DefaultDeliveryTimeout = 3 * time.Second

// =============================================================================
// LIFECYCLE TRACKER
// =============================================================================

// Tracker supervises the delivery lifecycle of sent exchanges. It keeps
// one state record per tracked assistant message plus a single global
// state that mirrors only the current in-flight exchange.
//
// The split matters for late events: once an exchange has been stopped,
// timed out, or superseded, events for it still land on its own record
// but can never move the global state again. The global state is what
// gates sending and drives the activity indicator.
//
// Each Begin arms a delivery timer for the new exchange. The timer is
// retired the moment the exchange advances past "initialized", so a
// timeout can only ever fire for an exchange the server never touched.
//
// Tracker is not safe for concurrent use; the owning Session serializes
// access. Timer callbacks do not mutate the tracker, they only hand the
// message id back to the session loop.
type Tracker struct {
	timeout  time.Duration
	onExpire func(messageID string)

	states   map[string]model.BackendState
	timers   map[string]*time.Timer
	inflight string
	global   model.BackendState
}

// NewTracker returns a tracker with the given delivery timeout. The
// onExpire callback fires on a timer goroutine when an exchange's
// delivery window lapses; it must post the id back to the owner rather
// than touch the tracker directly.
func NewTracker(timeout time.Duration, onExpire func(messageID string)) *Tracker {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &Tracker{
		timeout:  timeout,
		onExpire: onExpire,
		states:   make(map[string]model.BackendState),
		timers:   make(map[string]*time.Timer),
		global:   model.StateIdle,
	}
}

// Begin starts tracking a freshly sent exchange. The assistant message
// becomes the in-flight exchange, the global state flips to
// "initialized", and the delivery timer is armed.
func (t *Tracker) Begin(messageID string) {
	t.states[messageID] = model.StateInitialized
	t.inflight = messageID
	t.global = model.StateInitialized

	t.retireTimer(messageID)
	t.timers[messageID] = time.AfterFunc(t.timeout, func() {
		t.onExpire(messageID)
	})
}

// Apply records a server-reported lifecycle state for a message.
//
// Unknown ids are dropped: events for messages that were never tracked,
// or whose records were cleared by a conversation switch, have nothing
// left to update. For known ids the record always advances, but the
// global state follows only while the message is still the in-flight
// exchange.
func (t *Tracker) Apply(messageID string, state model.BackendState) {
	if _, ok := t.states[messageID]; !ok {
		return
	}
	t.states[messageID] = state

	// Any advance past "initialized" means the server has the exchange;
	// the delivery timer is no longer needed.
	if state != model.StateInitialized {
		t.retireTimer(messageID)
	}

	if messageID == t.inflight {
		t.global = state
		if state.IsTerminal() {
			t.inflight = ""
		}
	}
}

// Expire handles a lapsed delivery timer for the given message. It
// reports whether anything changed: an exchange that already advanced,
// or was cleared by a conversation switch, is left alone.
//
// On a real expiry the message record flips to "failed" and, if the
// exchange was still in flight, the global state returns to "idle".
func (t *Tracker) Expire(messageID string) bool {
	t.retireTimer(messageID)

	if t.states[messageID] != model.StateInitialized {
		return false
	}
	t.states[messageID] = model.StateFailed
	if messageID == t.inflight {
		t.inflight = ""
		t.global = model.StateIdle
	}
	return true
}

// Stop abandons the in-flight exchange from the client's side. The
// global state returns to "idle" immediately; the exchange's own record
// keeps whatever the server last reported and may still receive a
// trailing terminal event, which lands on the record only.
func (t *Tracker) Stop() {
	if t.inflight != "" {
		t.retireTimer(t.inflight)
		t.inflight = ""
	}
	t.global = model.StateIdle
}

// Reset drops all records and timers. Called when the active
// conversation is replaced; lifecycle state never survives a switch.
func (t *Tracker) Reset() {
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.states = make(map[string]model.BackendState)
	t.inflight = ""
	t.global = model.StateIdle
}

// Global returns the global backend state.
func (t *Tracker) Global() model.BackendState {
	return t.global
}

// Busy reports whether the backend is actively working the in-flight
// exchange. Sending is blocked while busy; the "initialized" delivery
// window deliberately does not block, matching the send guard the UI
// enforces.
func (t *Tracker) Busy() bool {
	return t.global.Busy()
}

// MessageState returns the tracked state for one message.
func (t *Tracker) MessageState(messageID string) (model.BackendState, bool) {
	s, ok := t.states[messageID]
	return s, ok
}

// MessageStates returns a copy of all per-message records.
func (t *Tracker) MessageStates() map[string]model.BackendState {
	out := make(map[string]model.BackendState, len(t.states))
	for id, s := range t.states {
		out[id] = s
	}
	return out
}

func (t *Tracker) retireTimer(messageID string) {
	if timer, ok := t.timers[messageID]; ok {
		timer.Stop()
		delete(t.timers, messageID)
	}
}
