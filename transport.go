package ipcsession

import (
	"context"
	"net/http"

	"github.com/wagiedev/ipc-session-go/internal/subprocess"
	"github.com/wagiedev/ipc-session-go/internal/transport"
	"github.com/wagiedev/ipc-session-go/internal/wsconn"
)

// Channel is a bidirectional, asynchronous message channel to one peer.
// Implement this to carry sessions over custom transports.
//
// Send returns false when the message is refused outright; otherwise it
// invokes onComplete exactly once. Subscribe registers a handler for every
// inbound message.
type Channel = transport.Channel

// Handler receives one inbound message.
type Handler = transport.Handler

// Subscription removes a handler registered with Channel.Subscribe.
type Subscription = transport.Subscription

// Listeners is an embeddable handler registry for Channel implementations.
type Listeners = transport.Listeners

// Identity names both ends of a channel in error messages.
type Identity = transport.Identity

// Identifier is implemented by channels that can name their endpoints.
type Identifier = transport.Identifier

// PipeEnd is one end of an in-memory channel pair.
type PipeEnd = transport.PipeEnd

// StreamChannel carries newline-delimited JSON over a reader/writer pair.
type StreamChannel = subprocess.StreamChannel

// Process is a spawned child process and the channel to it.
type Process = subprocess.Process

// SpawnConfig describes a child process for Spawn.
type SpawnConfig = subprocess.Config

// WebSocketConn is a channel over one WebSocket connection.
type WebSocketConn = wsconn.Conn

// Send delivers msg over ch and waits for the channel to report completion.
// kind labels the message in a resulting *SendError.
func Send(ctx context.Context, ch Channel, msg any, kind string) error {
	return transport.Send(ctx, ch, msg, kind)
}

// Pipe returns two connected in-memory channel ends. Messages are JSON
// encoded in transit, as they would be between processes.
func Pipe(opts ...Option) (*PipeEnd, *PipeEnd) {
	return transport.Pipe(applyOptions(opts).Logger)
}

// Spawn starts a child process and returns the channel to it over the
// child's stdin and stdout. The child should use Stdio for its end.
func Spawn(ctx context.Context, cfg SpawnConfig, opts ...Option) (*Process, error) {
	return subprocess.Spawn(ctx, applyOptions(opts).Logger, cfg)
}

// Stdio returns the channel from a spawned child back to its parent.
// Stdout belongs to the channel; log to stderr.
func Stdio(opts ...Option) *StreamChannel {
	return subprocess.Stdio(applyOptions(opts).Logger)
}

// DialWebSocket connects to a peer serving AcceptWebSocket at url.
func DialWebSocket(ctx context.Context, url string, opts ...Option) (*WebSocketConn, error) {
	return wsconn.Dial(ctx, applyOptions(opts).Logger, url)
}

// AcceptWebSocket upgrades an HTTP request to a channel. The handler must
// not return while the channel is in use; wait on its Done channel.
func AcceptWebSocket(w http.ResponseWriter, r *http.Request, opts ...Option) (*WebSocketConn, error) {
	return wsconn.Accept(applyOptions(opts).Logger, w, r)
}
