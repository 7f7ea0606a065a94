package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wagiedev/ipc-session-go/internal/errors"
)

// maxRenderedMessage bounds the message text carried by a SendError.
const maxRenderedMessage = 512

// Send delivers msg over ch and waits for the channel's completion callback.
//
// kind labels the message in failures (e.g. "request"). A synchronous refusal
// returns a *errors.SendError wrapping errors.ErrNotAccepted; a completion
// error returns a *errors.SendError wrapping that error. There is no retry.
//
// If ctx ends before completion is reported, ctx.Err() is returned and the
// message may still be delivered.
func Send(ctx context.Context, ch Channel, msg any, kind string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Buffered so a late callback never blocks the channel.
	done := make(chan error, 1)

	accepted := ch.Send(msg, func(err error) {
		select {
		case done <- err:
		default:
		}
	})
	if !accepted {
		return newSendError(ch, msg, kind, errors.ErrNotAccepted)
	}

	select {
	case err := <-done:
		if err != nil {
			return newSendError(ch, msg, kind, err)
		}

		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

func newSendError(ch Channel, msg any, kind string, cause error) *errors.SendError {
	id := IdentityOf(ch)

	return &errors.SendError{
		From:    id.Self,
		To:      id.Peer,
		Kind:    kind,
		Message: render(msg),
		Err:     cause,
	}
}

func render(msg any) string {
	var s string

	if data, err := json.Marshal(msg); err == nil {
		s = string(data)
	} else {
		s = fmt.Sprintf("%+v", msg)
	}

	if len(s) > maxRenderedMessage {
		s = s[:maxRenderedMessage] + "..."
	}

	return s
}
