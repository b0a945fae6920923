// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the sprouts TUI.
//
// The package defines an adaptive color palette (light/dark detection
// via Lip Gloss AdaptiveColor) and a Theme type aggregating the styled
// components used across the interface: header, message bubbles,
// sidebar, input area, and status bar.
//
// # Usage
//
//	theme := styles.NewTheme()
//	header := theme.Header.Render("sprouts")
package styles
