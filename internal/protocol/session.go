package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/ipc-session-go/internal/config"
	"github.com/wagiedev/ipc-session-go/internal/envelope"
	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/handshake"
	"github.com/wagiedev/ipc-session-go/internal/metrics"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// Session is an established IPC session over one channel.
type Session struct {
	log        *slog.Logger
	ch         transport.Channel
	options    *config.Options
	metrics    *metrics.Recorder
	controller *Controller

	handshakeTag string

	// Listener registry (protected by mu)
	mu     sync.Mutex
	subs   []transport.Subscription
	closed bool

	// In-flight request handlers
	handlerCtx     context.Context
	cancelHandlers context.CancelFunc
	wg             sync.WaitGroup

	closeOnce sync.Once
}

// Setup installs the session listeners on ch, runs the handshake and returns
// the established session.
//
// The request and foreign-message listeners are attached before the
// handshake so nothing the peer sends right after its own handshake is
// missed. If the handshake fails, Setup returns the error and those listeners
// stay attached. The response listener is attached once the handshake resolves.
func Setup(
	ctx context.Context,
	log *slog.Logger,
	ch transport.Channel,
	options *config.Options,
) (*Session, error) {
	if options == nil {
		options = &config.Options{}
	}

	rec := metrics.New(options.MetricsRegisterer)

	handlerCtx, cancelHandlers := context.WithCancel(context.WithoutCancel(ctx))

	s := &Session{
		log:            log.With("component", "session"),
		ch:             ch,
		options:        options,
		metrics:        rec,
		controller:     NewController(log, ch, rec),
		handlerCtx:     handlerCtx,
		cancelHandlers: cancelHandlers,
	}

	if options.RequestHandler != nil {
		s.subscribe(s.handleRequest)
	}

	if options.OtherMessageHandler != nil {
		s.subscribe(s.handleOtherMessage)
	}

	tag, err := s.runHandshake(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	s.handshakeTag = tag
	s.subscribe(s.controller.HandleMessage)

	s.log.Info("Session established", "handshake", tag)

	return s, nil
}

func (s *Session) runHandshake(ctx context.Context, log *slog.Logger) (string, error) {
	if s.options.HandshakeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeoutCause(ctx, s.options.HandshakeTimeout, errors.ErrHandshakeTimeout)
		defer cancel()
	}

	start := time.Now()

	tag, err := handshake.New(log, s.ch).Run(ctx)
	if err != nil {
		s.metrics.Handshake(metrics.OutcomeFailed, time.Since(start))

		return "", err
	}

	s.metrics.Handshake(handshakeOutcome(tag), time.Since(start))

	return tag, nil
}

func handshakeOutcome(tag string) string {
	switch tag {
	case handshake.TagSendGet:
		return "send_get"
	case handshake.TagGetSend:
		return "get_send"
	default:
		return tag
	}
}

// SendRequest sends payload to the peer and returns the payload of its response.
// See Controller.SendRequest.
func (s *Session) SendRequest(ctx context.Context, payload any) (any, error) {
	return s.controller.SendRequest(ctx, payload)
}

// HandshakeTag returns the tag of the handshake sequence that established the session.
func (s *Session) HandshakeTag() string {
	return s.handshakeTag
}

// PendingCount returns the number of outbound requests awaiting a response.
func (s *Session) PendingCount() int {
	return s.controller.PendingCount()
}

// Close removes the session's listeners, fails pending requests with
// errors.ErrSessionClosed, cancels the handler context and waits for running
// request handlers to return. It's safe to call Close multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.log.Debug("Closing session")

		s.mu.Lock()
		s.closed = true
		subs := s.subs
		s.subs = nil
		s.mu.Unlock()

		for _, sub := range subs {
			sub.Unsubscribe()
		}

		s.controller.Stop()
		s.cancelHandlers()
		s.wg.Wait()

		s.log.Info("Session closed")
	})

	return nil
}

func (s *Session) subscribe(handler transport.Handler) {
	sub := s.ch.Subscribe(handler)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// handleRequest dispatches an inbound request to the request handler.
func (s *Session) handleRequest(msg any) {
	req, ok := envelope.AsRequest(msg)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Debug("Dropping request received after close", "request_id", req.ID)

		return
	}

	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Debug("Received request", "request_id", req.ID)

	respond := s.newResponder(req)

	// Run handler in goroutine so delivery continues while it works
	go func() {
		defer s.wg.Done()

		s.options.RequestHandler(s.handlerCtx, req.Payload, respond)
	}()
}

// handleOtherMessage forwards foreign traffic to the configured handler.
func (s *Session) handleOtherMessage(msg any) {
	if !envelope.IsForeign(msg) {
		return
	}

	s.options.OtherMessageHandler(msg)
}
