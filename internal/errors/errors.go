package errors

import (
	"errors"
	"fmt"
	"strings"
)

// IPCSessionError is the base interface for all session errors.
type IPCSessionError interface {
	error
	IsIPCSessionError() bool
}

// Compile-time verification that all error types implement IPCSessionError.
var (
	_ IPCSessionError = (*SendError)(nil)
	_ IPCSessionError = (*ProcessError)(nil)
	_ IPCSessionError = (*JSONDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotAccepted indicates the channel synchronously refused a message.
	ErrNotAccepted = errors.New("send not accepted by channel")

	// ErrChannelClosed indicates the channel has been closed.
	ErrChannelClosed = errors.New("channel closed")

	// ErrSessionClosed indicates the session was closed while the operation was pending.
	ErrSessionClosed = errors.New("session closed")

	// ErrHandshakeAlreadyRun indicates a handshake coordinator was run a second time.
	ErrHandshakeAlreadyRun = errors.New("handshake already run")

	// ErrHandshakeTimeout indicates the configured handshake timeout elapsed.
	ErrHandshakeTimeout = errors.New("handshake timeout")
)

// SendError indicates a message could not be sent over the channel.
//
// Err wraps ErrNotAccepted when the channel refused the message synchronously,
// or the error reported by the channel's completion callback otherwise.
type SendError struct {
	// From and To identify the sender and receiver. Either may be empty.
	From string
	To   string

	// Kind labels the attempted message, e.g. "request" or "handshake response".
	Kind string

	// Message is a printable rendering of the message that failed.
	Message string

	Err error
}

func (e *SendError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "message"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "cannot send IPC %s", kind)

	if e.From != "" {
		fmt.Fprintf(&b, " from %s", e.From)
	}

	if e.To != "" {
		fmt.Fprintf(&b, " to %s", e.To)
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	if e.Message != "" {
		fmt.Fprintf(&b, " (%s: %s)", kind, e.Message)
	}

	return b.String()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsIPCSessionError implements IPCSessionError.
func (e *SendError) IsIPCSessionError() bool { return true }

// ProcessError indicates the peer process failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("peer process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("peer process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsIPCSessionError implements IPCSessionError.
func (e *ProcessError) IsIPCSessionError() bool { return true }

// JSONDecodeError indicates a line received from the peer was not valid JSON.
// This error preserves the original raw data that failed to parse.
type JSONDecodeError struct {
	RawData string
	Err     error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from peer: %v", e.Err)
}

func (e *JSONDecodeError) Unwrap() error {
	return e.Err
}

// IsIPCSessionError implements IPCSessionError.
func (e *JSONDecodeError) IsIPCSessionError() bool { return true }
