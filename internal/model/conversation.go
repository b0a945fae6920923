// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
//
// ConversationID is assigned by the server. ConversationName is a
// "/"-delimited path-like string: leading segments denote hierarchical
// grouping (e.g. a "projects/" prefix), the final segment is the display
// name.
//
// The message sequence is chronological and append-only from the client's
// perspective; only the tail may be mutated by streaming. The server may
// reorder or rewrite the whole sequence on a full snapshot, which replaces
// local state wholesale.
type Conversation struct {
	// Identity
	ConversationID   int64  `json:"conversation_id"`
	ConversationName string `json:"conversation_name"`

	// Timestamps (epoch seconds)
	CreatedAtUTC      int64 `json:"created_at_utc"`
	LastModifiedAtUTC int64 `json:"last_modified_at_utc"`

	// Messages
	Messages []Message `json:"messages"`
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastModifiedAtUTC = time.Now().Unix()
}

// MessageByID returns a pointer into the message sequence for the given
// identity, or nil if no such message exists. Identity alone is the match
// key; role is deliberately not part of it.
func (c *Conversation) MessageByID(messageID string) *Message {
	for i := range c.Messages {
		if c.Messages[i].MessageID == messageID {
			return &c.Messages[i]
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// LastModelID walks the history backwards and returns the model identifier
// of the most recent message that has one (i.e. the last assistant
// message). Returns "" if no message carries a model.
func (c *Conversation) LastModelID() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].HasModel() {
			return *c.Messages[i].ModelID
		}
	}
	return ""
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// COPY SEMANTICS
// =============================================================================

// Clone creates a deep copy of the conversation. Conversations are never
// shared by reference across components; snapshots hand out clones so the
// active state exclusively owns its mutable sequence.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	for i := range clone.Messages {
		if c.Messages[i].Context != nil {
			ctx := *c.Messages[i].Context
			clone.Messages[i].Context = &ctx
		}
		if c.Messages[i].ModelID != nil {
			id := *c.Messages[i].ModelID
			clone.Messages[i].ModelID = &id
		}
	}
	return &clone
}

// =============================================================================
// NAMING
// =============================================================================

// DisplayName returns the final path segment of the conversation name, or
// the whole name when it contains no separator.
func (c *Conversation) DisplayName() string {
	name := c.ConversationName
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
