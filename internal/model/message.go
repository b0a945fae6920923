// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// MessageID is globally unique and never reused. ExchangeID groups a user
// message with its paired assistant reply: within one exchange there are
// exactly two messages sharing the same ExchangeID.
type Message struct {
	// Identity
	MessageID      string `json:"message_id"`
	ExchangeID     string `json:"exchange_id"`
	ConversationID int64  `json:"conversation_id"`
	Role           Role   `json:"role"`

	// Content grows monotonically while an assistant message is streaming.
	Content string `json:"content"`

	// Context is an optional explanatory payload, populated asynchronously
	// by the server and never by the user.
	Context *string `json:"context"`

	// CreatedAtUTC is epoch seconds, assigned at creation, never changed.
	CreatedAtUTC int64 `json:"created_at_utc"`

	// ModelID is nil for user messages; for assistant messages it records
	// the model requested at creation.
	ModelID *string `json:"model_id"`
}

// =============================================================================
// MESSAGE CONSTRUCTION
// =============================================================================

// NewExchange builds the optimistic user/assistant message pair for one
// exchange. Both messages share a fresh ExchangeID and creation timestamp;
// the assistant placeholder starts with empty content and carries the
// requested model.
func NewExchange(conversationID int64, text, modelID string) (user, assistant Message) {
	exchangeID := uuid.NewString()
	now := time.Now().Unix()

	user = Message{
		MessageID:      uuid.NewString(),
		ExchangeID:     exchangeID,
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        text,
		CreatedAtUTC:   now,
	}

	assistant = Message{
		MessageID:      uuid.NewString(),
		ExchangeID:     exchangeID,
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        "",
		CreatedAtUTC:   now,
		ModelID:        &modelID,
	}

	return user, assistant
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendContent appends a streamed fragment to the message content.
func (m *Message) AppendContent(fragment string) {
	m.Content += fragment
}

// SetContext replaces the message context payload.
func (m *Message) SetContext(context string) {
	m.Context = &context
}

// HasModel reports whether the message carries a model identifier.
func (m *Message) HasModel() bool {
	return m.ModelID != nil && *m.ModelID != ""
}

// CreatedAt returns the creation time as a time.Time.
func (m *Message) CreatedAt() time.Time {
	return time.Unix(m.CreatedAtUTC, 0).UTC()
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
