package transport

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PipeEnd is one endpoint of an in-memory channel pair created by Pipe.
//
// Messages are JSON encoded on Send and decoded on delivery, so the receiver
// observes the same generic values (map[string]any, float64, ...) it would
// after crossing a process boundary.
type PipeEnd struct {
	Listeners

	log  *slog.Logger
	name string
	peer *PipeEnd

	mu     sync.Mutex
	inbox  [][]byte
	notify chan struct{}
	closed bool
	done   chan struct{}
}

// Compile-time verification that PipeEnd implements Channel and Identifier.
var (
	_ Channel    = (*PipeEnd)(nil)
	_ Identifier = (*PipeEnd)(nil)
)

// Pipe returns two connected channel endpoints. Each endpoint delivers its
// inbound messages on its own goroutine until it is closed.
func Pipe(log *slog.Logger) (*PipeEnd, *PipeEnd) {
	a := newPipeEnd(log, "pipe:a")
	b := newPipeEnd(log, "pipe:b")
	a.peer, b.peer = b, a

	go a.deliverLoop()
	go b.deliverLoop()

	return a, b
}

func newPipeEnd(log *slog.Logger, name string) *PipeEnd {
	return &PipeEnd{
		log:    log.With("component", "pipe", "end", name),
		name:   name,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Send implements Channel. It refuses messages that cannot be JSON encoded
// and messages sent after either endpoint is closed.
func (p *PipeEnd) Send(msg any, onComplete func(error)) bool {
	if p.isClosed() {
		return false
	}

	data, err := json.Marshal(msg)
	if err != nil {
		p.log.Debug("Refusing unencodable message", "error", err)

		return false
	}

	if !p.peer.enqueue(data) {
		return false
	}

	go onComplete(nil)

	return true
}

// Identity implements Identifier.
func (p *PipeEnd) Identity() Identity {
	return Identity{Self: p.name, Peer: p.peer.name}
}

// Close stops delivery on this endpoint. Sends in either direction are
// refused afterwards. It's safe to call Close multiple times.
func (p *PipeEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.done)
	}

	return nil
}

func (p *PipeEnd) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *PipeEnd) enqueue(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.inbox = append(p.inbox, data)

	select {
	case p.notify <- struct{}{}:
	default:
	}

	return true
}

func (p *PipeEnd) deliverLoop() {
	for {
		select {
		case <-p.notify:
		case <-p.done:
			return
		}

		p.mu.Lock()
		batch := p.inbox
		p.inbox = nil
		p.mu.Unlock()

		for _, data := range batch {
			if p.isClosed() {
				return
			}

			var msg any
			if err := json.Unmarshal(data, &msg); err != nil {
				p.log.Warn("Dropping undecodable message", "error", err)

				continue
			}

			p.Dispatch(msg)
		}
	}
}
