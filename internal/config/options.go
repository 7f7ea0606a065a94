// Package config provides configuration types for IPC sessions.
package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Responder sends the response to one inbound request.
//
// The first call sends payload and returns (true, nil) once the channel
// accepted it, or (false, err) with the send failure. Every later call returns
// (false, nil) and sends nothing.
type Responder func(ctx context.Context, payload any) (bool, error)

// RequestHandler handles one inbound request. It runs on its own goroutine and
// may call respond at any time, including after it returns.
type RequestHandler func(ctx context.Context, payload any, respond Responder)

// MessageHandler receives inbound messages that are not session envelopes.
// It runs on the channel's delivery goroutine, in arrival order.
type MessageHandler func(msg any)

// Options configures a session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// RequestHandler handles requests sent by the peer.
	// If nil, inbound requests are ignored.
	RequestHandler RequestHandler

	// OtherMessageHandler receives foreign traffic on the channel.
	// If nil, foreign messages are ignored.
	OtherMessageHandler MessageHandler

	// HandshakeTimeout bounds the handshake. Zero waits until the context is done.
	HandshakeTimeout time.Duration

	// MetricsRegisterer receives the session's Prometheus collectors.
	// If nil, no metrics are recorded.
	MetricsRegisterer prometheus.Registerer
}
