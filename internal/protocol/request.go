package protocol

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/wagiedev/ipc-session-go/internal/config"
	"github.com/wagiedev/ipc-session-go/internal/envelope"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// responseOnce is the per-request guard that lets exactly one response through.
// The first claim wins even when responders race from several goroutines.
type responseOnce struct {
	claimed atomic.Bool
}

func (g *responseOnce) claim() bool {
	return g.claimed.CompareAndSwap(false, true)
}

// newResponder returns the Responder handed to the request handler for req.
//
// Only the first call attempts a send. A failed first send is returned as an
// error and still consumes the guard, so later calls report false.
func (s *Session) newResponder(req *envelope.Request) config.Responder {
	var guard responseOnce

	kind := envelope.KindResponse.Label()

	return func(ctx context.Context, payload any) (bool, error) {
		if !guard.claim() {
			s.metrics.DuplicateResponse()
			s.log.Debug("Response already sent, ignoring", "request_id", req.ID)

			return false, nil
		}

		if err := transport.Send(ctx, s.ch, envelope.NewResponseTo(req, payload), kind); err != nil {
			s.metrics.SendFailed(kind)
			s.log.Error("Failed to send response", "request_id", req.ID, "error", err)

			return false, fmt.Errorf("send response: %w", err)
		}

		s.log.Debug("Response sent", "request_id", req.ID)

		return true, nil
	}
}
