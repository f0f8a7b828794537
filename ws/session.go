// Package ws runs one subscription session per websocket client: identity
// resolution in the background, broker registrations per subscribe frame,
// and idempotent teardown.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"group-chat/auth"
	"group-chat/core/chat"
	"group-chat/core/notif"
	"group-chat/core/pubsub"
)

const (
	StreamMessageAdded = "messageAdded"
	StreamGroupAdded   = "groupAdded"
)

// EventWriter is the client half of a session. The fiber handler backs it
// with a websocket connection; tests back it with a buffer.
type EventWriter interface {
	WriteJSON(v any) error
	Close() error
}

// SubscribeFrame is what a client sends to open one event stream.
type SubscribeFrame struct {
	Subscribe string   `json:"subscribe"`
	GroupIDs  []string `json:"groupIds,omitempty"`
	UserID    string   `json:"userId,omitempty"`
}

// EventFrame is one delivered notification.
type EventFrame struct {
	Type    string        `json:"type"`
	Message *chat.Message `json:"message,omitempty"`
	Group   *chat.Group   `json:"group,omitempty"`
}

type ErrorFrame struct {
	Error string `json:"error"`
}

// Session owns all broker registrations of one connected client. Events may
// start queueing the moment a stream is registered, even while the client's
// identity is still being resolved.
type Session struct {
	id         string
	dispatcher *notif.Dispatcher
	identity   *auth.Future

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	writer  EventWriter

	subsMu sync.Mutex
	subs   []*pubsub.Subscription

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSession starts resolving token in the background and returns the live
// session. Resolution failure closes the session with an authorization
// error frame; it is not retried.
func NewSession(dispatcher *notif.Dispatcher, resolver auth.TokenResolver, writer EventWriter, token string) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:         uuid.NewString(),
		dispatcher: dispatcher,
		identity:   auth.NewFuture(),
		ctx:        ctx,
		cancel:     cancel,
		writer:     writer,
		closed:     make(chan struct{}),
	}

	go s.resolve(resolver, token)

	return s
}

func (s *Session) resolve(resolver auth.TokenResolver, token string) {
	identity, err := resolver.Resolve(s.ctx, token)
	s.identity.Complete(identity, err)

	if err != nil {
		if !errors.Is(err, auth.ErrUnauthorized) {
			slog.Error("identity resolution failed", slog.String("session", s.id), "err", err)
		}
		s.writeJSON(ErrorFrame{Error: "unauthorized"})
		s.Close()
	}
}

// Subscribe registers one more stream for this client. The registration is
// live immediately; delivery starts once the identity resolves.
func (s *Session) Subscribe(frame SubscribeFrame) error {
	var sub *pubsub.Subscription

	switch frame.Subscribe {
	case StreamMessageAdded:
		sub = s.dispatcher.SubscribeMessages(s.ctx, s.identity, frame.GroupIDs)
	case StreamGroupAdded:
		sub = s.dispatcher.SubscribeGroups(s.ctx, s.identity, frame.UserID)
	default:
		return fmt.Errorf("unknown stream %q", frame.Subscribe)
	}

	s.subsMu.Lock()
	s.subs = append(s.subs, sub)
	s.subsMu.Unlock()

	go s.forward(sub)
	return nil
}

func (s *Session) forward(sub *pubsub.Subscription) {
	defer sub.Close()

	for event := range sub.C() {
		frame := EventFrame{Type: sub.Topic()}
		switch ev := event.(type) {
		case chat.Message:
			frame.Message = &ev
		case chat.Group:
			frame.Group = &ev
		default:
			continue
		}

		if err := s.writeJSON(frame); err != nil {
			slog.Debug("client write failed, closing session",
				slog.String("session", s.id), "err", err)
			s.Close()
			return
		}
	}
}

func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.WriteJSON(v)
}

// Close tears the session down: every registration deregisters and the
// client connection closes. Safe from the delivery path, the disconnect
// path and shutdown, concurrently.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.subsMu.Lock()
		for _, sub := range s.subs {
			sub.Close()
		}
		s.subsMu.Unlock()

		s.cancel()
		if err := s.writer.Close(); err != nil {
			slog.Debug("closing client connection", slog.String("session", s.id), "err", err)
		}
		close(s.closed)
	})
}

// Closed is closed once the session has been torn down.
func (s *Session) Closed() <-chan struct{} { return s.closed }
