package ipcsession

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/ipc-session-go/internal/config"
)

// Options holds the resolved session configuration.
type Options = config.Options

// Responder sends the single response to an inbound request.
// See WithRequestHandler.
type Responder = config.Responder

// RequestHandler handles one inbound request.
type RequestHandler = config.RequestHandler

// MessageHandler receives foreign messages.
type MessageHandler = config.MessageHandler

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = NopLogger()
	}

	return options
}

// WithLogger sets the logger for handshake, request and channel diagnostics.
// A nil or missing logger falls back to NopLogger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithRequestHandler installs the handler for requests sent by the peer.
//
// The handler runs on its own goroutine for each request. The Responder it
// receives sends at most one response: the first call reports true once the
// response is sent, or the send error; every later call reports false and
// sends nothing. Without a request handler, inbound requests are ignored.
func WithRequestHandler(handler RequestHandler) Option {
	return func(o *Options) {
		o.RequestHandler = handler
	}
}

// WithOtherMessageHandler installs a handler for every inbound message that
// is not a protocol envelope. It runs on the channel's delivery goroutine,
// so it must not block.
func WithOtherMessageHandler(handler MessageHandler) Option {
	return func(o *Options) {
		o.OtherMessageHandler = handler
	}
}

// WithHandshakeTimeout bounds the handshake. When it elapses Setup fails
// with ErrHandshakeTimeout. Zero means no timeout beyond the context.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.HandshakeTimeout = timeout
	}
}

// WithMetrics registers session metrics on reg.
// Sessions sharing a registerer share the collectors.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.MetricsRegisterer = reg
	}
}
