package subprocess

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// maxScanTokenSize is the maximum size of one encoded message line.
const maxScanTokenSize = 1024 * 1024 // 1MB

// StreamChannel implements transport.Channel over a reader/writer pair
// carrying one JSON document per line.
//
// Inbound lines are decoded and dispatched on the read goroutine in arrival
// order. Outbound messages are written in Send order by a single writer
// goroutine.
type StreamChannel struct {
	transport.Listeners

	log      *slog.Logger
	identity transport.Identity
	r        io.Reader
	w        io.Writer

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

// Compile-time verification that StreamChannel implements Channel and Identifier.
var (
	_ transport.Channel    = (*StreamChannel)(nil)
	_ transport.Identifier = (*StreamChannel)(nil)
)

// NewStreamChannel starts reading from r and returns a channel writing to w.
//
// Messages that arrive while no handler is subscribed are dropped. Close
// closes r and w when they implement io.Closer.
func NewStreamChannel(
	log *slog.Logger,
	r io.Reader,
	w io.Writer,
	identity transport.Identity,
) *StreamChannel {
	c := &StreamChannel{
		log:      log.With("component", "stream_channel", "self", identity.Self, "peer", identity.Peer),
		identity: identity,
		r:        r,
		w:        w,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go c.readLoop()

	go c.writeLoop()

	return c
}

// Send implements transport.Channel. It refuses messages that cannot be JSON
// encoded and messages sent after the channel closed. Write failures are
// reported to onComplete.
func (c *StreamChannel) Send(msg any, onComplete func(error)) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Debug("Refusing unencodable message", "error", err)

		return false
	}

	// Ensure data ends with newline
	data = append(data, '\n')

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
func (c *StreamChannel) Identity() transport.Identity {
	return c.identity
}

// Done is closed once the read side has ended, either because the peer
// closed its end of the stream or because Close was called.
func (c *StreamChannel) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the read loop, or nil for a clean EOF.
// It is only meaningful after Done is closed.
func (c *StreamChannel) Err() error {
	select {
	case <-c.done:
		return c.readErr
	default:
		return nil
	}
}

// Close refuses further sends and closes the underlying streams. Writes still
// queued once the writer observes the close fail with errors.ErrChannelClosed.
// It's safe to call Close multiple times.
func (c *StreamChannel) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.log.Debug("Closing stream channel")

		c.shutdown()

		if closer, ok := c.w.(io.Closer); ok {
			closeErr = closer.Close()
		}

		if closer, ok := c.r.(io.Closer); ok {
			_ = closer.Close()
		}
	})

	return closeErr
}

// shutdown marks the channel closed and wakes the writer.
func (c *StreamChannel) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.notify)
}

func (c *StreamChannel) readLoop() {
	defer close(c.done)
	defer c.log.Debug("Read loop stopped")

	scanner := bufio.NewScanner(c.r)
	// Set large buffer for big messages
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg any

		if err := json.Unmarshal(line, &msg); err != nil {
			c.log.Warn("Dropping undecodable line", "error", &errors.JSONDecodeError{
				RawData: string(line),
				Err:     err,
			})

			continue
		}

		c.Dispatch(msg)
	}

	if err := scanner.Err(); err != nil {
		c.log.Debug("Stream read ended with error", "error", err)

		c.readErr = err
	}

	// The peer is gone; nothing written from now on can be read.
	c.shutdown()
}

func (c *StreamChannel) writeLoop() {
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

			_, err := c.w.Write(out.data)
			if err != nil {
				c.log.Debug("Failed to write message", "error", err)
			}

			out.onComplete(err)
		}

		if !open {
			return
		}
	}
}
