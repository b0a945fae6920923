// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for sprouts-tui.
//
// Configuration is read from ~/.sprouts/config.toml with sensible
// defaults and environment variable overrides.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sprouts-ai/sprouts-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sprouts-tui configuration.
type Config struct {
	// Server settings
	Server ServerConfig `toml:"server"`

	// Chat settings
	Chat ChatConfig `toml:"chat"`

	// UI settings
	UI UIConfig `toml:"ui"`
}

// ServerConfig describes how to reach the chat backend.
type ServerConfig struct {
	// URL is the WebSocket endpoint of the backend event channel.
	URL string `toml:"url"`
	// HandshakeTimeoutSecs bounds the initial dial.
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs"`
	// WriteTimeoutSecs bounds each outbound event write.
	WriteTimeoutSecs int `toml:"write_timeout_secs"`
}

// ChatConfig tunes conversation behavior.
type ChatConfig struct {
	// DeliveryTimeoutMs is how long a sent message may wait for the
	// backend's first lifecycle event before it is marked failed.
	DeliveryTimeoutMs int `toml:"delivery_timeout_ms"`
}

// UIConfig contains display settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light"
	Theme string `toml:"theme"`
	// ShowSidebar controls whether the conversation sidebar starts open.
	ShowSidebar bool `toml:"show_sidebar"`
	// LogFile receives diagnostics; the TUI owns stdout so logs go to a
	// file (empty = ~/.sprouts/sprouts.log).
	LogFile string `toml:"log_file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:                  "ws://localhost:5001/channel",
			HandshakeTimeoutSecs: 5,
			WriteTimeoutSecs:     10,
		},
		Chat: ChatConfig{
			DeliveryTimeoutMs: 3000,
		},
		UI: UIConfig{
			Theme:       "dark",
			ShowSidebar: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the sprouts configuration directory (~/.sprouts).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".sprouts"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SelectionPath returns the path to the selection store file.
func SelectionPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "selection.json"), nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the config file, fills defaults, applies environment
// overrides, and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.HandshakeTimeoutSecs <= 0 {
		c.Server.HandshakeTimeoutSecs = defaults.Server.HandshakeTimeoutSecs
	}
	if c.Server.WriteTimeoutSecs <= 0 {
		c.Server.WriteTimeoutSecs = defaults.Server.WriteTimeoutSecs
	}
	if c.Chat.DeliveryTimeoutMs <= 0 {
		c.Chat.DeliveryTimeoutMs = defaults.Chat.DeliveryTimeoutMs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - SPROUTS_SERVER_URL: overrides server.url
//   - SPROUTS_THEME: overrides ui.theme
//   - SPROUTS_DELIVERY_TIMEOUT_MS: overrides chat.delivery_timeout_ms
//   - SPROUTS_LOG_FILE: overrides ui.log_file
func (c *Config) ApplyEnvOverrides() {
	if serverURL := os.Getenv("SPROUTS_SERVER_URL"); serverURL != "" {
		c.Server.URL = serverURL
	}
	if theme := os.Getenv("SPROUTS_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if ms := os.Getenv("SPROUTS_DELIVERY_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			c.Chat.DeliveryTimeoutMs = v
		}
	}
	if logFile := os.Getenv("SPROUTS_LOG_FILE"); logFile != "" {
		c.UI.LogFile = logFile
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Server.URL)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("scheme must be ws or wss, got %q", u.Scheme),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the config file atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to a specific path atomically.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// DeliveryTimeout returns the chat delivery timeout as a duration.
func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.Chat.DeliveryTimeoutMs) * time.Millisecond
}

// HandshakeTimeout returns the server handshake timeout as a duration.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Server.HandshakeTimeoutSecs) * time.Second
}

// WriteTimeout returns the server write timeout as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSecs) * time.Second
}

// LogFilePath resolves the diagnostics log file path.
func (c *Config) LogFilePath() (string, error) {
	if c.UI.LogFile != "" {
		return c.UI.LogFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sprouts.log"), nil
}
