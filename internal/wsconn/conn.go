package wsconn

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// maxMessageSize is the read limit for one frame.
const maxMessageSize = 1024 * 1024 // 1MB

// Conn implements transport.Channel over a WebSocket connection.
type Conn struct {
	transport.Listeners

	log      *slog.Logger
	conn     *websocket.Conn
	identity transport.Identity

	ctx    context.Context
	cancel context.CancelFunc

	// Outbound queue (protected by mu)
	mu     sync.Mutex
	outbox []outbound
	closed bool
	notify chan struct{}

	done      chan struct{}
	readErr   error
	closeOnce sync.Once
}

type outbound struct {
	data       []byte
	onComplete func(error)
}

// Compile-time verification that Conn implements Channel and Identifier.
var (
	_ transport.Channel    = (*Conn)(nil)
	_ transport.Identifier = (*Conn)(nil)
)

// Dial connects to the WebSocket server at url.
func Dial(ctx context.Context, log *slog.Logger, url string) (*Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return newConn(log, c, transport.Identity{Self: "websocket client", Peer: url}), nil
}

// Accept upgrades an HTTP request to a WebSocket connection.
//
// The handler must not return while the connection is in use; wait on Done.
func Accept(log *slog.Logger, w http.ResponseWriter, r *http.Request) (*Conn, error) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("accept websocket: %w", err)
	}

	return newConn(log, c, transport.Identity{Self: r.Host, Peer: r.RemoteAddr}), nil
}

func newConn(log *slog.Logger, c *websocket.Conn, identity transport.Identity) *Conn {
	c.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())

	conn := &Conn{
		log:      log.With("component", "wsconn", "self", identity.Self, "peer", identity.Peer),
		conn:     c,
		identity: identity,
		ctx:      ctx,
		cancel:   cancel,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go conn.readLoop()
	go conn.writeLoop()

	return conn
}

// Send implements transport.Channel. It refuses messages that cannot be JSON
// encoded and messages sent after the connection closed.
func (c *Conn) Send(msg any, onComplete func(error)) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Debug("Refusing unencodable message", "error", err)

		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.outbox = append(c.outbox, outbound{data: data, onComplete: onComplete})

	select {
	case c.notify <- struct{}{}:
	default:
	}

	return true
}

// Identity implements transport.Identifier.
func (c *Conn) Identity() transport.Identity {
	return c.identity
}

// Done is closed when the connection's read side has ended.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, or nil for a normal
// closure. It is only meaningful after Done is closed.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.readErr
	default:
		return nil
	}
}

// Close closes the connection with a normal closure status.
// It's safe to call Close multiple times.
func (c *Conn) Close() error {
	var err error

	c.closeOnce.Do(func() {
		c.log.Debug("Closing websocket connection")

		c.shutdown()

		err = c.conn.Close(websocket.StatusNormalClosure, "")
		c.cancel()

		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			err = nil
		}
	})

	return err
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.notify)
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer c.log.Debug("Read loop stopped")

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				!stderrors.Is(err, context.Canceled) {
				c.readErr = err
			}

			c.shutdown()
			c.cancel()

			return
		}

		var msg any

		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("Dropping undecodable frame", "error", &errors.JSONDecodeError{
				RawData: string(data),
				Err:     err,
			})

			continue
		}

		c.Dispatch(msg)
	}
}

func (c *Conn) writeLoop() {
	for {
		_, open := <-c.notify

		c.mu.Lock()
		batch := c.outbox
		c.outbox = nil
		c.mu.Unlock()

		for i, out := range batch {
			if !open {
				for _, rest := range batch[i:] {
					rest.onComplete(errors.ErrChannelClosed)
				}

				break
			}

			err := c.conn.Write(c.ctx, websocket.MessageText, out.data)
			if err != nil {
				c.log.Debug("Failed to write frame", "error", err)
			}

			out.onComplete(err)
		}

		if !open {
			return
		}
	}
}
