// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a generation model offered by the backend.
// The available set is pushed by the server in a models_response event;
// ModelID is unique within that set.
type ModelInfo struct {
	// ModelID is the model identifier used on the wire
	ModelID string `json:"model_id"`

	// Name is the human-readable display label
	Name string `json:"name"`

	// ClientID identifies the backend client that serves the model
	// (e.g. "ollama")
	ClientID string `json:"client_id"`
}

// IsZero reports whether the model info is unset.
func (m ModelInfo) IsZero() bool {
	return m.ModelID == "" && m.Name == "" && m.ClientID == ""
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// FindModel looks up a model by its identifier in the available set.
// Returns the ModelInfo and true if found, otherwise a zero ModelInfo and
// false.
func FindModel(available []ModelInfo, modelID string) (ModelInfo, bool) {
	if modelID == "" {
		return ModelInfo{}, false
	}
	for _, m := range available {
		if m.ModelID == modelID {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// DefaultModel returns the first entry of the available set, the fallback
// when a conversation is empty or references an unknown model. Returns a
// zero ModelInfo when no models are available.
func DefaultModel(available []ModelInfo) ModelInfo {
	if len(available) == 0 {
		return ModelInfo{}
	}
	return available[0]
}
