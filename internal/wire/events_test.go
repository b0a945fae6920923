// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wire defines the events exchanged over the conversation channel.
package wire

import (
	"encoding/json"
	"testing"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
)

// =============================================================================
// ENVELOPE TESTS
// =============================================================================

func TestNewEnvelope_NoPayload(t *testing.T) {
	env, err := NewEnvelope(EventRequestConversations, nil)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Event != EventRequestConversations {
		t.Errorf("Event = %q", env.Event)
	}
	if len(env.Payload) != 0 {
		t.Errorf("expected empty payload, got %s", env.Payload)
	}
}

func TestEnvelope_NewMessageRoundTrip(t *testing.T) {
	user, assistant := model.NewExchange(7, "hello", "mistral")
	env, err := NewEnvelope(EventNewMessage, NewMessage{
		UserMessage:      user,
		AssistantMessage: assistant,
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	// The envelope is what crosses the socket; make sure it survives
	// a marshal/unmarshal hop intact.
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var back Envelope
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	var payload NewMessage
	if err := back.Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.UserMessage.MessageID != user.MessageID {
		t.Error("user message identity lost in transit")
	}
	if payload.AssistantMessage.ExchangeID != user.ExchangeID {
		t.Error("exchange pairing lost in transit")
	}
	if payload.AssistantMessage.ModelID == nil || *payload.AssistantMessage.ModelID != "mistral" {
		t.Error("assistant model id lost in transit")
	}
}

func TestEnvelope_DecodeMissingPayload(t *testing.T) {
	env := Envelope{Event: EventBackendUpdate}
	var upd BackendUpdate
	if err := env.Decode(&upd); err == nil {
		t.Error("decoding an empty payload should error")
	}
}

func TestRequestConversation_NullID(t *testing.T) {
	// Absence of a stored conversation id is expressed as an explicit
	// null on the wire, which asks the server for its default.
	env, err := NewEnvelope(EventRequestConversation, RequestConversation{})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if string(env.Payload) != `{"conversation_id":null}` {
		t.Errorf("payload = %s, want explicit null id", env.Payload)
	}
}

func TestBackendUpdate_Decode(t *testing.T) {
	env := Envelope{
		Event:   EventBackendUpdate,
		Payload: json.RawMessage(`{"message_id":"m1","state":"writing"}`),
	}
	var upd BackendUpdate
	if err := env.Decode(&upd); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if upd.MessageID != "m1" || upd.State != model.StateWriting {
		t.Errorf("decoded %+v", upd)
	}
}
