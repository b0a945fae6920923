// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the small cross-run selection state.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sprouts-ai/sprouts-tui/internal/util"
)

// =============================================================================
// SELECTION STORE
// =============================================================================

// Store remembers which conversation and which model the user last had
// selected, so a restart lands where they left off. It holds exactly two
// facts and nothing else: conversation content always comes from the
// server, and the model hint is only ever a hint, never an override of
// what a loaded conversation implies.
type Store struct {
	path string

	mu    sync.Mutex
	state state
}

type state struct {
	ConversationID *int64 `json:"conversation_id,omitempty"`
	ModelHint      string `json:"model_hint,omitempty"`
}

// Open loads the selection store at path. A missing file is not an
// error; it simply yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read selection store: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// A corrupt store is discarded rather than wedging startup;
		// the only cost is losing the remembered selection.
		return &Store{path: path}, nil
	}
	return s, nil
}

// ConversationID returns the remembered conversation id, if any.
func (s *Store) ConversationID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ConversationID == nil {
		return 0, false
	}
	return *s.state.ConversationID, true
}

// SetConversationID remembers the given conversation id.
func (s *Store) SetConversationID(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConversationID = &id
	return s.saveLocked()
}

// ModelHint returns the remembered model id, or "" if none is stored.
func (s *Store) ModelHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ModelHint
}

// SetModelHint remembers the model id the user last picked explicitly.
func (s *Store) SetModelHint(modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ModelHint = modelID
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal selection store: %w", err)
	}
	return util.AtomicWriteFile(s.path, append(data, '\n'), 0644)
}
