package ipcsession

import "github.com/wagiedev/ipc-session-go/internal/errors"

// Re-export error types from internal package

// SendError indicates a message could not be sent over the channel.
type SendError = errors.SendError

// ProcessError indicates a spawned peer process failed.
type ProcessError = errors.ProcessError

// JSONDecodeError indicates a peer sent data that is not valid JSON.
type JSONDecodeError = errors.JSONDecodeError

// IPCSessionError is the base interface for all session errors.
type IPCSessionError = errors.IPCSessionError

// Re-export sentinel errors from internal package.
var (
	// ErrNotAccepted indicates the channel synchronously refused a message.
	ErrNotAccepted = errors.ErrNotAccepted

	// ErrChannelClosed indicates the channel has been closed.
	ErrChannelClosed = errors.ErrChannelClosed

	// ErrSessionClosed indicates the session was closed while a request was pending.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrHandshakeAlreadyRun indicates a handshake coordinator was run a second time.
	ErrHandshakeAlreadyRun = errors.ErrHandshakeAlreadyRun

	// ErrHandshakeTimeout indicates the handshake timeout set by WithHandshakeTimeout elapsed.
	ErrHandshakeTimeout = errors.ErrHandshakeTimeout
)
