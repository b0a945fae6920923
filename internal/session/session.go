// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation synchronization core.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sprouts-ai/sprouts-tui/internal/channel"
	"github.com/sprouts-ai/sprouts-tui/internal/model"
	"github.com/sprouts-ai/sprouts-tui/internal/store"
	"github.com/sprouts-ai/sprouts-tui/internal/wire"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoConversation is returned when an operation needs an active
	// conversation and none is loaded yet.
	ErrNoConversation = errors.New("no active conversation")

	// ErrNoModel is returned when sending before any model is known.
	ErrNoModel = errors.New("no model selected")

	// ErrBusy is returned when sending while the backend is already
	// working an exchange.
	ErrBusy = errors.New("backend busy")

	// ErrUnknownModel is returned when selecting a model id the server
	// never advertised.
	ErrUnknownModel = errors.New("unknown model")
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the client-side synchronization core. It owns the active
// conversation, the conversation directory, the model selection, and
// the delivery lifecycle of sent exchanges, and it is the single writer
// for all of them.
//
// Server events arrive on one inbound queue and are dispatched strictly
// in order by Run; delivery timer expiries are funneled onto the same
// loop. User operations take the session lock directly. The UI observes
// through snapshot accessors and a coalescing update signal, never by
// holding references into session-owned state.
type Session struct {
	emitter channel.Emitter
	store   *store.Store
	logger  *log.Logger

	mu        sync.Mutex
	tracker   *Tracker
	directory Directory
	conv      *model.Conversation
	models    []model.ModelInfo
	current   model.ModelInfo
	override  bool
	requested bool

	expiries chan string
	updates  chan struct{}
}

// Config holds session configuration.
type Config struct {
	// Emitter is the outbound half of the event channel. Required.
	Emitter channel.Emitter

	// Store persists the conversation and model selection across runs.
	// May be nil, in which case nothing is remembered.
	Store *store.Store

	// DeliveryTimeout bounds how long a sent exchange may wait for its
	// first lifecycle event (default: DefaultDeliveryTimeout).
	DeliveryTimeout time.Duration

	// Logger receives dispatch diagnostics. May be nil.
	Logger *log.Logger
}

// New creates a session. Call Bootstrap to kick off the initial
// snapshot requests and Run to start consuming server events.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	s := &Session{
		emitter:  cfg.Emitter,
		store:    cfg.Store,
		logger:   logger,
		expiries: make(chan string, 16),
		updates:  make(chan struct{}, 1),
	}
	s.tracker = NewTracker(cfg.DeliveryTimeout, func(messageID string) {
		// Runs on a timer goroutine. Post back to the session loop so
		// the flip happens in dispatch order with everything else.
		select {
		case s.expiries <- messageID:
		default:
		}
	})
	return s
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Run consumes server events and timer expiries until the context is
// cancelled or the event queue closes.
func (s *Session) Run(ctx context.Context, events <-chan wire.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				return
			}
			s.Dispatch(env)
		case id := <-s.expiries:
			s.Expire(id)
		}
	}
}

// Updates returns a signal that fires whenever observable session state
// changes. Signals coalesce; consumers re-read the snapshot accessors
// on each one.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// =============================================================================
// EVENT DISPATCH
// =============================================================================

// transitions maps each inbound event tag to its transition function.
// Every server-driven state change in the session goes through exactly
// one of these.
var transitions = map[string]func(*Session, wire.Envelope) error{
	wire.EventConversationsResponse:   (*Session).onConversations,
	wire.EventConversationResponse:    (*Session).onConversation,
	wire.EventConversationUpdate:      (*Session).onConversationUpdate,
	wire.EventModelsResponse:          (*Session).onModels,
	wire.EventBackendUpdate:           (*Session).onBackendUpdate,
	wire.EventMessageStreamResponse:   (*Session).onStream,
	wire.EventMessageMetadataResponse: (*Session).onMetadata,
}

// Dispatch applies one inbound event. Events are applied in call
// order; Run calls this for every envelope the channel delivers.
func (s *Session) Dispatch(env wire.Envelope) {
	transition, ok := transitions[env.Event]
	if !ok {
		s.logger.Printf("session: ignoring unknown event %q", env.Event)
		return
	}
	if err := transition(s, env); err != nil {
		s.logger.Printf("session: %s: %v", env.Event, err)
	}
}

func (s *Session) onConversations(env wire.Envelope) error {
	var list []model.Conversation
	if err := env.Decode(&list); err != nil {
		return err
	}
	s.mu.Lock()
	s.directory.Refresh(list)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) onConversation(env wire.Envelope) error {
	var conv model.Conversation
	if err := env.Decode(&conv); err != nil {
		return err
	}
	s.mu.Lock()
	// A snapshot for the conversation already on screen is an echo,
	// typically from a listing refresh. Keeping the local copy protects
	// optimistic messages the server has not stored yet. Pushed
	// corrections come in as conversation_update instead.
	if s.conv != nil && s.conv.ConversationID == conv.ConversationID {
		s.mu.Unlock()
		return nil
	}
	s.loadLocked(conv)
	s.mu.Unlock()
	s.refreshListing()
	s.notify()
	return nil
}

func (s *Session) onConversationUpdate(env wire.Envelope) error {
	var conv model.Conversation
	if err := env.Decode(&conv); err != nil {
		return err
	}
	s.mu.Lock()
	s.loadLocked(conv)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) onModels(env wire.Envelope) error {
	var list []model.ModelInfo
	if err := env.Decode(&list); err != nil {
		return err
	}
	s.mu.Lock()
	s.models = list
	_, overrideStillKnown := model.FindModel(s.models, s.current.ModelID)
	if !s.override || !overrideStillKnown {
		// An override only holds while the server still advertises the
		// chosen model; otherwise the selection falls back to derivation.
		s.override = false
		s.deriveModelLocked()
	}
	needInitial := s.conv == nil && !s.requested
	if needInitial {
		s.requested = true
	}
	s.mu.Unlock()

	if needInitial {
		if err := s.requestInitialConversation(); err != nil {
			s.logger.Printf("session: initial conversation request: %v", err)
		}
	}
	s.notify()
	return nil
}

func (s *Session) onBackendUpdate(env wire.Envelope) error {
	var upd wire.BackendUpdate
	if err := env.Decode(&upd); err != nil {
		return err
	}
	if !upd.State.Valid() {
		return fmt.Errorf("invalid state %q for message %s", upd.State, upd.MessageID)
	}
	s.mu.Lock()
	_, known := s.tracker.MessageState(upd.MessageID)
	s.tracker.Apply(upd.MessageID, upd.State)
	s.mu.Unlock()

	// A completed exchange changes the listing server-side (message
	// counts, modification times, generated names), so pull it fresh.
	if known && upd.State == model.StateComplete {
		s.refreshListing()
	}
	s.notify()
	return nil
}

// refreshListing re-requests the conversation directory. The listing is
// server-owned and conversations_response is a reply, never a push, so
// the client asks again after every mutation it learns about.
func (s *Session) refreshListing() {
	if err := s.emitter.Emit(wire.EventRequestConversations, nil); err != nil {
		s.logger.Printf("session: refresh listing: %v", err)
	}
}

func (s *Session) onStream(env wire.Envelope) error {
	var frag wire.MessageStream
	if err := env.Decode(&frag); err != nil {
		return err
	}
	s.mu.Lock()
	applied := ApplyFragment(s.conv, frag.MessageID, frag.Content)
	s.mu.Unlock()
	if applied {
		s.notify()
	}
	return nil
}

func (s *Session) onMetadata(env wire.Envelope) error {
	var meta wire.MessageMetadata
	if err := env.Decode(&meta); err != nil {
		return err
	}
	s.mu.Lock()
	applied := ApplyMetadata(s.conv, meta.MessageID, meta.Context)
	s.mu.Unlock()
	if applied {
		s.notify()
	}
	return nil
}

// Expire processes a lapsed delivery timer for the given message.
// Run feeds timer expiries through here so they interleave with
// server events in a single order.
func (s *Session) Expire(messageID string) {
	s.mu.Lock()
	changed := s.tracker.Expire(messageID)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// =============================================================================
// CONVERSATION LOADING
// =============================================================================

// loadLocked replaces the active conversation with a server snapshot.
// A load is total: messages, lifecycle records, and any user model
// override are all superseded by what the snapshot implies.
func (s *Session) loadLocked(conv model.Conversation) {
	s.conv = &conv
	s.tracker.Reset()
	s.override = false
	s.requested = true
	s.deriveModelLocked()

	if s.store != nil {
		if err := s.store.SetConversationID(conv.ConversationID); err != nil {
			s.logger.Printf("session: persist conversation id: %v", err)
		}
	}
}

// deriveModelLocked recomputes the current model from the active
// conversation: the model of the newest message that names one, falling
// back to the first advertised model. The result is a ModelInfo from
// the advertised list, never an id the server does not know.
func (s *Session) deriveModelLocked() {
	if s.conv != nil {
		if m, ok := model.FindModel(s.models, s.conv.LastModelID()); ok {
			s.current = m
			return
		}
	}
	s.current = model.DefaultModel(s.models)
}

// requestInitialConversation asks for the remembered conversation, or
// the server's default when nothing is remembered or the hint turns out
// to be stale; the server answers a dangling id with its default.
func (s *Session) requestInitialConversation() error {
	var req wire.RequestConversation
	if s.store != nil {
		if id, ok := s.store.ConversationID(); ok {
			req.ConversationID = &id
		}
	}
	return s.emitter.Emit(wire.EventRequestConversation, req)
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

// Bootstrap requests the model list and conversation directory. The
// initial conversation is requested once models arrive, so the first
// send can never race an empty model list.
func (s *Session) Bootstrap() error {
	if err := s.emitter.Emit(wire.EventRequestModels, nil); err != nil {
		return err
	}
	return s.emitter.Emit(wire.EventRequestConversations, nil)
}

// Resync re-requests full snapshots after a transport reconnect. Events
// generated while the socket was down are lost, so the directory and
// model list are pulled fresh rather than patched.
func (s *Session) Resync() error {
	if err := s.emitter.Emit(wire.EventRequestModels, nil); err != nil {
		return err
	}
	return s.emitter.Emit(wire.EventRequestConversations, nil)
}

// Open requests a full snapshot of the given conversation.
func (s *Session) Open(conversationID int64) error {
	id := conversationID
	return s.emitter.Emit(wire.EventRequestConversation, wire.RequestConversation{ConversationID: &id})
}

// OpenDefault requests the server-chosen default conversation.
func (s *Session) OpenDefault() error {
	return s.emitter.Emit(wire.EventRequestConversation, wire.RequestConversation{})
}

// SendMessage sends one user message as an optimistic exchange: the
// user message and an empty assistant placeholder are appended locally
// and shipped to the server in the same event, and delivery supervision
// starts for the placeholder.
//
// Blank input is a silent no-op. Sending while the backend is thinking
// or writing returns ErrBusy without touching any state.
func (s *Session) SendMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return ErrNoConversation
	}
	if s.current.IsZero() {
		return ErrNoModel
	}
	if s.tracker.Busy() {
		return ErrBusy
	}

	user, assistant := model.NewExchange(s.conv.ConversationID, text, s.current.ModelID)
	s.conv.Append(user)
	s.conv.Append(assistant)
	s.tracker.Begin(assistant.MessageID)

	err := s.emitter.Emit(wire.EventNewMessage, wire.NewMessage{
		UserMessage:      user,
		AssistantMessage: assistant,
	})
	if err != nil {
		// The optimistic pair stays; delivery supervision will flip the
		// placeholder to failed when no lifecycle event arrives.
		s.logger.Printf("session: send: %v", err)
	}

	s.notify()
	return err
}

// Stop abandons the in-flight exchange. The backend is told to stop
// and the global state returns to idle immediately, without waiting for
// confirmation; trailing events for the abandoned exchange land on its
// own record only.
func (s *Session) Stop() error {
	s.mu.Lock()
	s.tracker.Stop()
	s.mu.Unlock()
	s.notify()
	return s.emitter.Emit(wire.EventStop, nil)
}

// Rename asks the server to rename a conversation, then re-requests the
// listing so the sidebar picks up the new name. Nothing is patched
// locally; the refreshed directory is the source of truth.
func (s *Session) Rename(conversationID int64, name string) error {
	err := s.emitter.Emit(wire.EventUpdateConversation, wire.UpdateConversation{
		ConversationID: conversationID,
		Name:           name,
	})
	if err != nil {
		return err
	}
	s.refreshListing()
	return nil
}

// SetModel switches the current model to one of the advertised models.
// The choice sticks until the next conversation load and is remembered
// across runs as a hint.
func (s *Session) SetModel(modelID string) error {
	s.mu.Lock()
	m, ok := model.FindModel(s.models, modelID)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownModel
	}
	s.current = m
	s.override = true
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SetModelHint(modelID); err != nil {
			s.logger.Printf("session: persist model hint: %v", err)
		}
	}
	s.notify()
	return nil
}

// =============================================================================
// SNAPSHOT ACCESSORS
// =============================================================================

// Conversation returns a deep copy of the active conversation, or nil
// when none is loaded.
func (s *Session) Conversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return nil
	}
	return s.conv.Clone()
}

// Global returns the global backend state.
func (s *Session) Global() model.BackendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Global()
}

// MessageState returns the tracked lifecycle state for one message.
func (s *Session) MessageState(messageID string) (model.BackendState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.MessageState(messageID)
}

// MessageStates returns a copy of all per-message lifecycle records.
func (s *Session) MessageStates() map[string]model.BackendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.MessageStates()
}

// Models returns a copy of the advertised model list.
func (s *Session) Models() []model.ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ModelInfo, len(s.models))
	copy(out, s.models)
	return out
}

// CurrentModel returns the model the next send will use. Zero when no
// models are known yet.
func (s *Session) CurrentModel() model.ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Conversations returns a copy of the directory listing.
func (s *Session) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory.All()
}

// Tree returns the directory grouped for sidebar display.
func (s *Session) Tree() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory.Tree()
}
