// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the
// application for representing chat conversations, messages, generation
// models and per-message delivery state.
//
// # Key Types
//
//   - Conversation: server-owned chat history with a path-like name
//   - Message: single message keyed by a globally unique message_id and
//     grouped into exchanges (one user message, one assistant reply)
//   - ModelInfo: a generation model advertised by the backend
//   - BackendState: the delivery lifecycle of an assistant message
//
// # Usage
//
// Build an optimistic exchange pair before sending it over the channel:
//
//	user, assistant := model.NewExchange(conv.ConversationID, "hello", "mistral")
//	conv.Append(user)
//	conv.Append(assistant)
package model
