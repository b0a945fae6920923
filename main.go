// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sprouts is a terminal client for the sprouts chat backend.
//
// It connects to the backend's WebSocket event channel, keeps a local
// conversation mirror synchronized with server events, and renders a
// Bubble Tea chat interface on top of it.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprouts-ai/sprouts-tui/internal/channel"
	"github.com/sprouts-ai/sprouts-tui/internal/config"
	"github.com/sprouts-ai/sprouts-tui/internal/session"
	"github.com/sprouts-ai/sprouts-tui/internal/store"
	"github.com/sprouts-ai/sprouts-tui/internal/ui/chat"
	"github.com/sprouts-ai/sprouts-tui/internal/ui/styles"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sprouts: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	// Selection persistence is best effort; the client works without it.
	var sel *store.Store
	if path, err := config.SelectionPath(); err == nil {
		if s, err := store.Open(path); err == nil {
			sel = s
		} else {
			logger.Printf("main: selection store unavailable: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := channel.Dial(ctx, channel.Config{
		URL:              cfg.Server.URL,
		HandshakeTimeout: cfg.HandshakeTimeout(),
		WriteTimeout:     cfg.WriteTimeout(),
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Server.URL, err)
	}
	defer ch.Close()

	sess := session.New(session.Config{
		Emitter:         ch,
		Store:           sel,
		DeliveryTimeout: cfg.DeliveryTimeout(),
		Logger:          logger,
	})

	go sess.Run(ctx, ch.Events())
	go func() {
		for range ch.Reconnected() {
			if err := sess.Resync(); err != nil {
				logger.Printf("main: resync after reconnect: %v", err)
			}
		}
	}()

	if err := sess.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	program := tea.NewProgram(
		chat.New(sess, styles.NewTheme(), cfg.UI.ShowSidebar),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// openLogger directs diagnostics at the configured log file. The TUI
// owns the terminal, so without a file all logging is discarded.
func openLogger(cfg *config.Config) (*log.Logger, func(), error) {
	path, err := cfg.LogFilePath()
	if err != nil || path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}
