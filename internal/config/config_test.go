// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for sprouts-tui.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL == "" {
		t.Error("default server URL should not be empty")
	}
	if cfg.Chat.DeliveryTimeoutMs != 3000 {
		t.Errorf("DeliveryTimeoutMs = %d, want 3000", cfg.Chat.DeliveryTimeoutMs)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", cfg.UI.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromPath_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.URL != Default().Server.URL {
		t.Errorf("URL = %q, want default", cfg.Server.URL)
	}
}

func TestLoadFromPath_PartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
url = "wss://chat.example.com/channel"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.URL != "wss://chat.example.com/channel" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	// Unset values come from defaults.
	if cfg.Chat.DeliveryTimeoutMs != 3000 {
		t.Errorf("DeliveryTimeoutMs = %d, want default 3000", cfg.Chat.DeliveryTimeoutMs)
	}
}

func TestLoadFromPath_InvalidScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
url = "http://chat.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("an http URL should fail validation")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SPROUTS_SERVER_URL", "ws://override:9999/channel")
	t.Setenv("SPROUTS_DELIVERY_TIMEOUT_MS", "500")
	t.Setenv("SPROUTS_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.URL != "ws://override:9999/channel" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Chat.DeliveryTimeoutMs != 500 {
		t.Errorf("DeliveryTimeoutMs = %d", cfg.Chat.DeliveryTimeoutMs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestApplyEnvOverrides_BadTimeoutIgnored(t *testing.T) {
	t.Setenv("SPROUTS_DELIVERY_TIMEOUT_MS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Chat.DeliveryTimeoutMs != 3000 {
		t.Errorf("DeliveryTimeoutMs = %d, bad override should be ignored", cfg.Chat.DeliveryTimeoutMs)
	}
}

func TestValidate_Theme(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "solarized"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown theme should fail validation")
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.URL = "wss://saved.example.com/channel"
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Server.URL != cfg.Server.URL {
		t.Errorf("URL = %q, want %q", loaded.Server.URL, cfg.Server.URL)
	}
}

func TestDerivedDurations(t *testing.T) {
	cfg := Default()
	if cfg.DeliveryTimeout() != 3*time.Second {
		t.Errorf("DeliveryTimeout = %v", cfg.DeliveryTimeout())
	}
	if cfg.HandshakeTimeout() != 5*time.Second {
		t.Errorf("HandshakeTimeout = %v", cfg.HandshakeTimeout())
	}
}
