package handshake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/ipc-session-go/internal/envelope"
	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// Resolution tags returned by Run.
const (
	TagSendGet = "The SEND/GET handshake sequence succeeded"
	TagGetSend = "The GET/SEND handshake sequence succeeded"
)

// State is the lifecycle state of a Coordinator.
type State int32

const (
	StateIdle State = iota
	StateRacing
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRacing:
		return "racing"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Coordinator runs one handshake over a channel.
type Coordinator struct {
	log   *slog.Logger
	ch    transport.Channel
	state atomic.Int32
}

// New creates a coordinator for ch.
func New(log *slog.Logger, ch transport.Channel) *Coordinator {
	return &Coordinator{
		log: log.With("component", "handshake"),
		ch:  ch,
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// result is a single-assignment handshake outcome. It is read only after
// every sub-protocol has returned.
type result struct {
	once sync.Once
	tag  string
}

func (r *result) resolve(tag string) {
	r.once.Do(func() { r.tag = tag })
}

func (r *result) get() (string, bool) {
	return r.tag, r.tag != ""
}

// Run performs the handshake and returns the tag of the winning sub-protocol.
//
// A send failure fails the handshake unless the other sub-protocol already
// resolved it. If ctx ends first, Run returns context.Cause(ctx).
// Run may be called once; later calls return errors.ErrHandshakeAlreadyRun.
func (c *Coordinator) Run(ctx context.Context) (string, error) {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateRacing)) {
		return "", errors.ErrHandshakeAlreadyRun
	}

	handshakeID := ulid.Make().String()

	c.log.Debug("Starting handshake", "handshake_id", handshakeID)

	// Listener callbacks only signal; the sub-protocols do the sending so the
	// channel's delivery goroutine never blocks on a send.
	responseSeen := make(chan struct{}, 1)
	requests := make(chan *envelope.HandshakeRequest, 1)

	responseSub := c.ch.Subscribe(func(msg any) {
		if envelope.IsHandshakeResponseTo(msg, handshakeID) {
			select {
			case responseSeen <- struct{}{}:
			default:
			}
		}
	})
	defer responseSub.Unsubscribe()

	requestSub := c.ch.Subscribe(func(msg any) {
		if req, ok := envelope.AsHandshakeRequest(msg); ok {
			select {
			case requests <- req:
			default:
				c.log.Debug("Ignoring extra handshake request", "handshake_id", req.ID)
			}
		}
	})
	defer requestSub.Unsubscribe()

	raceCtx, cancelRace := context.WithCancel(ctx)
	defer cancelRace()

	var res result

	win := func(tag string) {
		res.resolve(tag)
		cancelRace()
	}

	// Sends wait on gCtx so a losing sub-protocol stuck in a send is released
	// as soon as the other one wins.
	g, gCtx := errgroup.WithContext(raceCtx)

	// SEND/GET
	g.Go(func() error {
		req := envelope.NewHandshakeRequest(handshakeID)
		if err := transport.Send(gCtx, c.ch, req, envelope.KindHandshakeRequest.Label()); err != nil {
			return fmt.Errorf("send handshake request: %w", err)
		}

		select {
		case <-responseSeen:
			win(TagSendGet)
		case <-gCtx.Done():
		}

		return nil
	})

	// GET/SEND
	g.Go(func() error {
		select {
		case req := <-requests:
			resp := envelope.NewHandshakeResponseTo(req)
			if err := transport.Send(gCtx, c.ch, resp, envelope.KindHandshakeResponse.Label()); err != nil {
				return fmt.Errorf("send handshake response: %w", err)
			}

			win(TagGetSend)
		case <-gCtx.Done():
		}

		return nil
	})

	err := g.Wait()

	if tag, ok := res.get(); ok {
		c.state.Store(int32(StateResolved))
		c.log.Debug("Handshake resolved", "handshake_id", handshakeID, "tag", tag)

		return tag, nil
	}

	if err == nil || ctx.Err() != nil {
		err = context.Cause(ctx)
	}

	c.state.Store(int32(StateFailed))
	c.log.Warn("Handshake failed", "handshake_id", handshakeID, "error", err)

	return "", err
}
