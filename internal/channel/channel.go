// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channel provides the duplex event channel to the chat backend.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/sprouts-ai/sprouts-tui/internal/wire"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrClosed is returned by Emit after the channel has been shut down.
var ErrClosed = errors.New("channel closed")

// =============================================================================
// EMITTER INTERFACE
// =============================================================================

// Emitter is the outbound half of the event channel. The session core
// depends on this interface only, so tests can substitute a recorder.
type Emitter interface {
	// Emit sends one named event with an optional payload.
	Emit(event string, payload interface{}) error
}

// =============================================================================
// CHANNEL
// =============================================================================

// Channel is a WebSocket connection to the backend carrying JSON event
// envelopes in both directions. Inbound events are delivered on a single
// queue in the order the server sent them for this socket; each event is
// delivered at most once.
//
// On read failure the channel redials transparently. Events generated by
// the server while the socket was down are lost, which is why the session
// re-requests full snapshots after reconnecting rather than trying to
// patch the gap.
type Channel struct {
	url    string
	logger *log.Logger

	// Write side. The mutex serializes writers; gorilla/websocket
	// supports at most one concurrent writer per connection.
	writeMu      sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration

	// Read side
	inbound chan wire.Envelope

	// Coalescing reconnect signal. Consumers re-request snapshots on
	// each firing because events sent while the socket was down are gone.
	reconnected chan struct{}

	// Redial pacing. One token every two seconds, small burst, so a
	// flapping server does not get hammered.
	redial *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Config holds channel configuration.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "ws://localhost:5001/channel"
	URL string

	// HandshakeTimeout bounds the initial dial (default: 5s)
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each outbound write (default: 10s)
	WriteTimeout time.Duration

	// InboundBuffer is the inbound queue capacity (default: 256)
	InboundBuffer int

	// Logger receives connection diagnostics. The TUI owns stdout, so
	// callers normally point this at a file. May be nil.
	Logger *log.Logger
}

func (c *Config) setDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.InboundBuffer <= 0 {
		c.InboundBuffer = 256
	}
	if c.Logger == nil {
		c.Logger = log.New(discard{}, "", 0)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// =============================================================================
// DIAL
// =============================================================================

// Dial connects to the backend and starts the read pump. The returned
// channel remains usable across reconnects until Close is called or the
// context is cancelled.
func Dial(ctx context.Context, cfg Config) (*Channel, error) {
	cfg.setDefaults()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	cctx, cancel := context.WithCancel(ctx)
	ch := &Channel{
		url:          cfg.URL,
		logger:       cfg.Logger,
		conn:         conn,
		writeTimeout: cfg.WriteTimeout,
		inbound:      make(chan wire.Envelope, cfg.InboundBuffer),
		reconnected:  make(chan struct{}, 1),
		redial:       rate.NewLimiter(rate.Every(2*time.Second), 3),
		ctx:          cctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	go ch.readPump(dialer, conn)
	return ch, nil
}

// =============================================================================
// OUTBOUND
// =============================================================================

// Emit marshals the payload into an envelope and writes it to the socket.
// Returns ErrClosed after shutdown. A write that races a reconnect may
// fail; senders treat that like any other delivery failure (the timeout
// supervision catches silently dropped sends).
func (ch *Channel) Emit(event string, payload interface{}) error {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	select {
	case <-ch.ctx.Done():
		return ErrClosed
	default:
	}

	conn := ch.conn
	if conn == nil {
		return ErrClosed
	}

	conn.SetWriteDeadline(time.Now().Add(ch.writeTimeout))
	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// =============================================================================
// INBOUND
// =============================================================================

// Events returns the inbound event queue. The queue is closed when the
// channel shuts down for good.
func (ch *Channel) Events() <-chan wire.Envelope {
	return ch.inbound
}

// Reconnected returns a signal that fires after each successful redial.
// Signals coalesce.
func (ch *Channel) Reconnected() <-chan struct{} {
	return ch.reconnected
}

// readPump reads envelopes from its own connection until it fails, then
// redials. The pump never reads the shared ch.conn field: Close may nil
// it at any moment, so the pump works exclusively on the connection it
// was handed and the one reconnect returns. The shared field exists for
// Emit, which reads it under the write mutex.
func (ch *Channel) readPump(dialer websocket.Dialer, conn *websocket.Conn) {
	defer close(ch.done)
	defer close(ch.inbound)

	for {
		var env wire.Envelope
		err := conn.ReadJSON(&env)
		if err == nil {
			select {
			case ch.inbound <- env:
			case <-ch.ctx.Done():
				return
			}
			continue
		}

		if ch.ctx.Err() != nil {
			return
		}
		ch.logger.Printf("channel: read failed: %v", err)

		conn = ch.reconnect(dialer)
		if conn == nil {
			return
		}
	}
}

// reconnect redials until it succeeds or the channel is shut down,
// returning the new connection (nil on shutdown). Attempts are paced by
// the redial limiter.
func (ch *Channel) reconnect(dialer websocket.Dialer) *websocket.Conn {
	for {
		if err := ch.redial.Wait(ch.ctx); err != nil {
			return nil
		}

		conn, _, err := dialer.DialContext(ch.ctx, ch.url, nil)
		if err != nil {
			ch.logger.Printf("channel: redial failed: %v", err)
			continue
		}

		ch.writeMu.Lock()
		old := ch.conn
		ch.conn = conn
		ch.writeMu.Unlock()
		if old != nil {
			old.Close()
		}

		ch.logger.Printf("channel: reconnected to %s", ch.url)
		select {
		case ch.reconnected <- struct{}{}:
		default:
		}
		return conn
	}
}

// =============================================================================
// SHUTDOWN
// =============================================================================

// Close shuts the channel down and waits for the read pump to exit.
func (ch *Channel) Close() error {
	ch.cancel()

	ch.writeMu.Lock()
	conn := ch.conn
	ch.conn = nil
	ch.writeMu.Unlock()

	var err error
	if conn != nil {
		// Best effort close frame so the server drops us cleanly.
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = conn.Close()
	}

	<-ch.done
	return err
}
