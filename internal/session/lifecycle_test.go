// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation synchronization core.
package session

import (
	"testing"
	"time"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
)

func newTestTracker(timeout time.Duration) (*Tracker, chan string) {
	expiries := make(chan string, 16)
	tracker := NewTracker(timeout, func(id string) { expiries <- id })
	return tracker, expiries
}

// =============================================================================
// TRACKER TESTS
// =============================================================================

func TestTracker_BeginTracksInFlight(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)

	tracker.Begin("m1")

	if tracker.Global() != model.StateInitialized {
		t.Errorf("Global = %s, want initialized", tracker.Global())
	}
	if s, ok := tracker.MessageState("m1"); !ok || s != model.StateInitialized {
		t.Errorf("MessageState = %s, %v", s, ok)
	}
}

func TestTracker_ApplyFollowsInFlight(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)
	tracker.Begin("m1")

	tracker.Apply("m1", model.StateThinking)
	if tracker.Global() != model.StateThinking || !tracker.Busy() {
		t.Errorf("Global = %s after thinking", tracker.Global())
	}

	tracker.Apply("m1", model.StateWriting)
	tracker.Apply("m1", model.StateComplete)
	if tracker.Global() != model.StateComplete {
		t.Errorf("Global = %s after complete", tracker.Global())
	}
	if tracker.Busy() {
		t.Error("complete is not busy")
	}
}

func TestTracker_ApplyUnknownIDDropped(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)
	tracker.Begin("m1")

	tracker.Apply("stranger", model.StateWriting)

	if tracker.Global() != model.StateInitialized {
		t.Errorf("untracked id moved the global state to %s", tracker.Global())
	}
	if _, ok := tracker.MessageState("stranger"); ok {
		t.Error("untracked id should not grow a record")
	}
}

func TestTracker_ExpireExactlyOnce(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)
	tracker.Begin("m1")

	if !tracker.Expire("m1") {
		t.Fatal("first expiry should flip the exchange")
	}
	if s, _ := tracker.MessageState("m1"); s != model.StateFailed {
		t.Errorf("MessageState = %s, want failed", s)
	}
	if tracker.Global() != model.StateIdle {
		t.Errorf("Global = %s, want idle", tracker.Global())
	}

	if tracker.Expire("m1") {
		t.Error("second expiry must be a no-op")
	}
}

func TestTracker_ExpireAfterAcknowledgementIsNoOp(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)
	tracker.Begin("m1")
	tracker.Apply("m1", model.StateThinking)

	if tracker.Expire("m1") {
		t.Error("an acknowledged exchange must not be failed by its timer")
	}
	if tracker.Global() != model.StateThinking {
		t.Errorf("Global = %s, want thinking", tracker.Global())
	}
}

func TestTracker_StopReleasesGlobalOnly(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)
	tracker.Begin("m1")
	tracker.Apply("m1", model.StateWriting)

	tracker.Stop()

	if tracker.Global() != model.StateIdle {
		t.Errorf("Global = %s after stop, want idle", tracker.Global())
	}

	// Trailing events for the abandoned exchange land on its record but
	// never pull the global state back.
	tracker.Apply("m1", model.StateWriting)
	if tracker.Global() != model.StateIdle {
		t.Error("trailing event resurrected the global state")
	}
	tracker.Apply("m1", model.StateComplete)
	if s, _ := tracker.MessageState("m1"); s != model.StateComplete {
		t.Errorf("record = %s, want complete", s)
	}
	if tracker.Global() != model.StateIdle {
		t.Error("terminal trailing event resurrected the global state")
	}
}

func TestTracker_ResetDropsEverything(t *testing.T) {
	tracker, expiries := newTestTracker(20 * time.Millisecond)
	tracker.Begin("m1")

	tracker.Reset()

	if _, ok := tracker.MessageState("m1"); ok {
		t.Error("reset should drop records")
	}
	if tracker.Global() != model.StateIdle {
		t.Errorf("Global = %s after reset, want idle", tracker.Global())
	}

	// The armed timer was retired with the record.
	select {
	case id := <-expiries:
		t.Errorf("retired timer fired for %s", id)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTracker_TimerFires(t *testing.T) {
	tracker, expiries := newTestTracker(10 * time.Millisecond)
	tracker.Begin("m1")

	select {
	case id := <-expiries:
		if id != "m1" {
			t.Errorf("expiry for %q, want m1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("delivery timer never fired")
	}
}

func TestTracker_NewExchangeSupersedesOld(t *testing.T) {
	tracker, _ := newTestTracker(time.Hour)
	tracker.Begin("m1")
	tracker.Apply("m1", model.StateComplete)

	tracker.Begin("m2")
	if tracker.Global() != model.StateInitialized {
		t.Errorf("Global = %s, want initialized", tracker.Global())
	}

	// Events for the finished exchange no longer steer the global state.
	tracker.Apply("m1", model.StateWriting)
	if tracker.Global() != model.StateInitialized {
		t.Error("superseded exchange moved the global state")
	}
}
