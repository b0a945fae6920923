// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"testing"
)

// =============================================================================
// EXCHANGE TESTS
// =============================================================================

func TestNewExchange_PairsMessages(t *testing.T) {
	user, assistant := NewExchange(42, "hello", "mistral")

	if user.ExchangeID == "" {
		t.Fatal("ExchangeID should be generated")
	}
	if user.ExchangeID != assistant.ExchangeID {
		t.Errorf("pair should share one ExchangeID, got %q and %q", user.ExchangeID, assistant.ExchangeID)
	}
	if user.MessageID == assistant.MessageID {
		t.Error("MessageID must be unique within the pair")
	}
	if user.ConversationID != 42 || assistant.ConversationID != 42 {
		t.Error("both messages should carry the conversation id")
	}
}

func TestNewExchange_UserMessage(t *testing.T) {
	user, _ := NewExchange(1, "hello", "mistral")

	if user.Role != RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, RoleUser)
	}
	if user.Content != "hello" {
		t.Errorf("Content = %q, want %q", user.Content, "hello")
	}
	if user.ModelID != nil {
		t.Error("user messages never carry a model id")
	}
	if user.Context != nil {
		t.Error("context is never set at creation")
	}
	if user.CreatedAtUTC == 0 {
		t.Error("CreatedAtUTC should be assigned at creation")
	}
}

func TestNewExchange_AssistantPlaceholder(t *testing.T) {
	_, assistant := NewExchange(1, "hello", "mistral")

	if assistant.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", assistant.Role, RoleAssistant)
	}
	if assistant.Content != "" {
		t.Errorf("assistant placeholder should start empty, got %q", assistant.Content)
	}
	if !assistant.HasModel() || *assistant.ModelID != "mistral" {
		t.Error("assistant message should carry the requested model id")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_AppendContent(t *testing.T) {
	_, msg := NewExchange(1, "q", "mistral")

	msg.AppendContent("Hi")
	msg.AppendContent(" there")

	if msg.Content != "Hi there" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hi there")
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short content unchanged", "hello", 10, "hello"},
		{"long content truncated", "hello world", 8, "hello..."},
		{"newlines flattened", "a\nb", 10, "a b"},
		{"unicode safe", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Message{Content: tc.content}
			if got := m.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_MessageByID(t *testing.T) {
	conv := Conversation{ConversationID: 1}
	user, assistant := NewExchange(1, "q", "mistral")
	conv.Append(user)
	conv.Append(assistant)

	found := conv.MessageByID(assistant.MessageID)
	if found == nil {
		t.Fatal("MessageByID should find the appended message")
	}
	if found.Role != RoleAssistant {
		t.Errorf("found wrong message: role = %q", found.Role)
	}

	if conv.MessageByID("no-such-id") != nil {
		t.Error("unknown id should return nil")
	}
}

func TestConversation_MessageByID_MutatesInPlace(t *testing.T) {
	conv := Conversation{ConversationID: 1}
	_, assistant := NewExchange(1, "q", "mistral")
	conv.Append(assistant)

	conv.MessageByID(assistant.MessageID).AppendContent("token")

	if conv.Messages[0].Content != "token" {
		t.Error("MessageByID should return a pointer into the sequence")
	}
}

func TestConversation_LastModelID(t *testing.T) {
	conv := Conversation{ConversationID: 1}
	if got := conv.LastModelID(); got != "" {
		t.Errorf("empty conversation LastModelID = %q, want empty", got)
	}

	u1, a1 := NewExchange(1, "first", "mistral")
	conv.Append(u1)
	conv.Append(a1)
	u2, a2 := NewExchange(1, "second", "llama3")
	conv.Append(u2)
	conv.Append(a2)

	if got := conv.LastModelID(); got != "llama3" {
		t.Errorf("LastModelID = %q, want %q", got, "llama3")
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := Conversation{ConversationID: 1, ConversationName: "projects/demo"}
	_, assistant := NewExchange(1, "q", "mistral")
	conv.Append(assistant)

	clone := conv.Clone()
	clone.Messages[0].AppendContent("mutation")
	clone.Messages[0].SetContext("ctx")

	if conv.Messages[0].Content != "" {
		t.Error("mutating the clone should not affect the original content")
	}
	if conv.Messages[0].Context != nil {
		t.Error("mutating the clone should not affect the original context")
	}
}

func TestConversation_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		full string
		want string
	}{
		{"plain name", "notes", "notes"},
		{"grouped name", "projects/demo", "demo"},
		{"deep path", "a/b/c", "c"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Conversation{ConversationName: tc.full}
			if got := c.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

// =============================================================================
// MODEL LOOKUP TESTS
// =============================================================================

func TestFindModel(t *testing.T) {
	available := []ModelInfo{
		{ModelID: "mistral", Name: "Mistral 7b", ClientID: "ollama"},
		{ModelID: "llama3", Name: "Llama 3", ClientID: "ollama"},
	}

	m, ok := FindModel(available, "llama3")
	if !ok {
		t.Fatal("FindModel should find llama3")
	}
	if m.Name != "Llama 3" {
		t.Errorf("Name = %q, want %q", m.Name, "Llama 3")
	}

	if _, ok := FindModel(available, "missing"); ok {
		t.Error("unknown id should not be found")
	}
	if _, ok := FindModel(available, ""); ok {
		t.Error("empty id should not be found")
	}
}

func TestDefaultModel(t *testing.T) {
	if !DefaultModel(nil).IsZero() {
		t.Error("no available models should yield a zero ModelInfo")
	}

	available := []ModelInfo{{ModelID: "mistral"}, {ModelID: "llama3"}}
	if got := DefaultModel(available).ModelID; got != "mistral" {
		t.Errorf("DefaultModel = %q, want first entry %q", got, "mistral")
	}
}

// =============================================================================
// BACKEND STATE TESTS
// =============================================================================

func TestBackendState_Busy(t *testing.T) {
	busy := []BackendState{StateThinking, StateWriting}
	for _, s := range busy {
		if !s.Busy() {
			t.Errorf("%s should be busy", s)
		}
	}

	idle := []BackendState{StateIdle, StateInitialized, StateComplete, StateFailed}
	for _, s := range idle {
		if s.Busy() {
			t.Errorf("%s should not be busy", s)
		}
	}
}

func TestBackendState_IsTerminal(t *testing.T) {
	if !StateComplete.IsTerminal() || !StateFailed.IsTerminal() {
		t.Error("complete and failed are terminal")
	}
	if StateIdle.IsTerminal() || StateInitialized.IsTerminal() || StateWriting.IsTerminal() {
		t.Error("non-final states must not be terminal")
	}
}

func TestBackendState_Valid(t *testing.T) {
	if BackendState("bogus").Valid() {
		t.Error("unknown state should be invalid")
	}
	for _, s := range []BackendState{StateIdle, StateInitialized, StateThinking, StateWriting, StateComplete, StateFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
}
