// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wire defines the events exchanged over the conversation channel.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
)

// =============================================================================
// EVENT NAMES
// =============================================================================

// Client-to-server events.
const (
	EventRequestConversations = "request_conversations"
	EventRequestConversation  = "request_conversation"
	EventRequestModels        = "request_models"
	EventNewMessage           = "new_message"
	EventUpdateConversation   = "update_conversation"
	EventStop                 = "stop"
)

// Server-to-client events.
const (
	EventConversationsResponse   = "conversations_response"
	EventConversationResponse    = "conversation_response"
	EventConversationUpdate      = "conversation_update"
	EventModelsResponse          = "models_response"
	EventBackendUpdate           = "backend_update"
	EventMessageStreamResponse   = "message_stream_response"
	EventMessageMetadataResponse = "message_metadata_response"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the framing for every event on the channel: a name tag plus
// a raw payload decoded lazily by the dispatcher. The channel delivers
// envelopes at most once each, in the order the server sent them for a
// given socket; there is no sequence number and no replay.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals a payload into an envelope for the given event.
// A nil payload produces an envelope with no payload field.
func NewEnvelope(event string, payload interface{}) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env.Payload = raw
	return env, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.Event)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nil
}

// =============================================================================
// CLIENT PAYLOADS
// =============================================================================

// RequestConversation asks the server for a full conversation snapshot.
// A nil ConversationID requests the server-driven default conversation;
// the client never invents an identifier.
type RequestConversation struct {
	ConversationID *int64 `json:"conversation_id"`
}

// NewMessage carries an optimistic exchange pair to the server.
type NewMessage struct {
	UserMessage      model.Message `json:"user_message"`
	AssistantMessage model.Message `json:"assistant_message"`
}

// UpdateConversation renames a conversation. The server answers with a
// refreshed listing, so the client never patches names locally.
type UpdateConversation struct {
	ConversationID int64  `json:"conversation_id"`
	Name           string `json:"name"`
}

// =============================================================================
// SERVER PAYLOADS
// =============================================================================

// BackendUpdate advances the delivery lifecycle of one assistant message.
type BackendUpdate struct {
	MessageID string             `json:"message_id"`
	State     model.BackendState `json:"state"`
}

// MessageStream delivers one incremental content fragment for an
// in-progress assistant message.
type MessageStream struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// MessageMetadata delivers the asynchronous context payload for a message.
// Metadata and content fragments are decoupled channels and may arrive
// interleaved or in either order.
type MessageMetadata struct {
	MessageID string `json:"message_id"`
	Context   string `json:"context"`
}
