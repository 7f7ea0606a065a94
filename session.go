package ipcsession

import (
	"context"

	"github.com/wagiedev/ipc-session-go/internal/handshake"
	"github.com/wagiedev/ipc-session-go/internal/protocol"
)

// Handshake tags report which sequence established the session.
const (
	// HandshakeTagSendGet means the peer answered this side's handshake request.
	HandshakeTagSendGet = handshake.TagSendGet
	// HandshakeTagGetSend means this side answered the peer's handshake request.
	HandshakeTagGetSend = handshake.TagGetSend
)

// Session is an established request/response session with one peer.
//
// Lifecycle: Sessions are single-use. After Close(), call Setup again on a
// channel to start a new one.
type Session interface {
	// SendRequest sends payload to the peer and returns the payload of its matching response.
	// Any number of requests may be pending at once. The call blocks until the
	// response arrives, ctx is done (returning ctx.Err()) or the session closes
	// (returning ErrSessionClosed). A send failure is returned as a *SendError.
	SendRequest(ctx context.Context, payload any) (any, error)

	// HandshakeTag returns HandshakeTagSendGet or HandshakeTagGetSend.
	HandshakeTag() string

	// Close removes the session's listeners from the channel, fails pending
	// requests and waits for running request handlers. It does not close the
	// channel. Safe to call multiple times.
	Close() error
}

// Compile-time verification that the protocol session implements Session.
var _ Session = (*protocol.Session)(nil)

// Setup establishes a session over ch.
//
// The request and foreign-message handlers are installed before the
// handshake starts and stay installed if it fails. Setup returns once the
// handshake resolves, or with its error.
//
// Example usage:
//
//	session, err := ipcsession.Setup(ctx, ch,
//	    ipcsession.WithLogger(slog.Default()),
//	    ipcsession.WithHandshakeTimeout(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
func Setup(ctx context.Context, ch Channel, opts ...Option) (Session, error) {
	options := applyOptions(opts)

	session, err := protocol.Setup(ctx, options.Logger, ch, options)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Handshake runs only the readiness handshake over ch and returns its tag.
//
// The peer must run a handshake (or Setup) on its end. Only WithLogger and
// WithHandshakeTimeout apply.
func Handshake(ctx context.Context, ch Channel, opts ...Option) (string, error) {
	options := applyOptions(opts)

	if options.HandshakeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeoutCause(ctx, options.HandshakeTimeout, ErrHandshakeTimeout)
		defer cancel()
	}

	return handshake.New(options.Logger, ch).Run(ctx)
}
