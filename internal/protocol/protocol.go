package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/ipc-session-go/internal/envelope"
	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/metrics"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// Controller correlates outbound requests with inbound responses.
//
// HandleMessage must be subscribed to the channel before SendRequest is used.
type Controller struct {
	log     *slog.Logger
	ch      transport.Channel
	metrics *metrics.Recorder

	// Request tracking
	pendingMu sync.Mutex
	pending   map[string]*pendingRequest

	// Lifecycle management
	closeOnce sync.Once
	done      chan struct{}
}

// pendingRequest tracks an outgoing request awaiting response.
type pendingRequest struct {
	response chan *envelope.Response
	started  time.Time
}

// NewController creates a controller sending over ch.
func NewController(log *slog.Logger, ch transport.Channel, rec *metrics.Recorder) *Controller {
	return &Controller{
		log:     log.With("component", "protocol"),
		ch:      ch,
		metrics: rec,
		pending: make(map[string]*pendingRequest, 10),
		done:    make(chan struct{}),
	}
}

// SendRequest sends payload as a request and waits for the matching response.
//
// Any number of calls may be pending at once; each is matched by its own id
// regardless of the order responses arrive in. A send failure is returned as
// is, wrapped. If ctx ends first the waiter is removed and ctx.Err() returned.
// After Stop, SendRequest returns errors.ErrSessionClosed.
func (c *Controller) SendRequest(ctx context.Context, payload any) (any, error) {
	requestID := ulid.Make().String()

	pending := &pendingRequest{
		response: make(chan *envelope.Response, 1),
		started:  time.Now(),
	}

	c.pendingMu.Lock()

	select {
	case <-c.done:
		c.pendingMu.Unlock()

		return nil, errors.ErrSessionClosed
	default:
	}

	c.pending[requestID] = pending
	c.pendingMu.Unlock()

	c.metrics.RequestStarted()
	c.log.Debug("Sending request", "request_id", requestID)

	kind := envelope.KindRequest.Label()

	if err := transport.Send(ctx, c.ch, envelope.NewRequest(requestID, payload), kind); err != nil {
		c.remove(requestID)
		c.metrics.SendFailed(kind)
		c.metrics.RequestFinished(metrics.OutcomeSendFailed, 0)
		c.log.Error("Failed to send request", "request_id", requestID, "error", err)

		return nil, fmt.Errorf("send request: %w", err)
	}

	c.log.Debug("Request sent, waiting for response", "request_id", requestID)

	select {
	case resp := <-pending.response:
		c.metrics.RequestFinished(metrics.OutcomeAnswered, time.Since(pending.started))
		c.log.Debug("Received response", "request_id", requestID)

		return resp.Payload, nil

	case <-c.done:
		c.remove(requestID)
		c.metrics.RequestFinished(metrics.OutcomeClosed, 0)
		c.log.Debug("Session closed during request", "request_id", requestID)

		return nil, errors.ErrSessionClosed

	case <-ctx.Done():
		c.remove(requestID)
		c.metrics.RequestFinished(metrics.OutcomeCancelled, 0)
		c.log.Debug("Request cancelled", "request_id", requestID)

		return nil, ctx.Err()
	}
}

// HandleMessage routes a response envelope to its waiting request.
// Other messages are ignored.
func (c *Controller) HandleMessage(msg any) {
	kind := envelope.KindOf(msg)
	c.metrics.Inbound(string(kind))

	if kind != envelope.KindResponse {
		return
	}

	resp, ok := envelope.AsResponse(msg)
	if !ok {
		return
	}

	// Find and claim pending request atomically
	c.pendingMu.Lock()

	pending, exists := c.pending[resp.ID]
	if exists {
		delete(c.pending, resp.ID)
	}

	c.pendingMu.Unlock()

	if !exists {
		c.log.Warn("No pending request for response", "request_id", resp.ID)

		return
	}

	// We own the waiter now; the channel is buffered so this never blocks.
	pending.response <- resp
}

// PendingCount returns the number of requests awaiting a response.
func (c *Controller) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	return len(c.pending)
}

// Stop fails every pending and future request with errors.ErrSessionClosed.
// It's safe to call Stop multiple times.
func (c *Controller) Stop() {
	c.closeOnce.Do(func() {
		c.pendingMu.Lock()
		close(c.done)
		c.pendingMu.Unlock()
	})
}

func (c *Controller) remove(requestID string) {
	c.pendingMu.Lock()
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
}
