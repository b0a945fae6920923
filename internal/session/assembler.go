// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation synchronization core.
package session

import (
	"github.com/sprouts-ai/sprouts-tui/internal/model"
)

// =============================================================================
// STREAM ASSEMBLY
// =============================================================================

// ApplyFragment appends one streamed content fragment to the message it
// addresses. Fragments are routed by message id alone; ordering within
// a message is whatever order they arrived in. A fragment for an id not
// present in the conversation is dropped without effect, which is how
// stragglers from a previous conversation die off after a switch.
//
// Reports whether the fragment was applied.
func ApplyFragment(conv *model.Conversation, messageID, fragment string) bool {
	if conv == nil {
		return false
	}
	msg := conv.MessageByID(messageID)
	if msg == nil {
		return false
	}
	msg.AppendContent(fragment)
	return true
}

// ApplyMetadata attaches the asynchronous context payload to the
// message it addresses. Metadata travels independently of content
// fragments and may land before, between, or after them; it only ever
// touches the context field. Unknown ids are dropped exactly like
// unknown fragments.
//
// Reports whether the metadata was applied.
func ApplyMetadata(conv *model.Conversation, messageID, context string) bool {
	if conv == nil {
		return false
	}
	msg := conv.MessageByID(messageID)
	if msg == nil {
		return false
	}
	msg.SetContext(context)
	return true
}
