package ipcsession

import (
	"context"
	"fmt"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// This helper sets up a session over ch, executes the callback function, and
// ensures proper cleanup via Close() when done. The channel itself is left
// open.
//
// If the callback returns an error, it is returned to the caller.
// If Close() fails, a warning is logged but does not override the callback's error.
//
// Example usage:
//
//	err := ipcsession.WithSession(ctx, ch, func(s ipcsession.Session) error {
//	    resp, err := s.SendRequest(ctx, "ping")
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(resp)
//	    return nil
//	},
//	    ipcsession.WithLogger(log),
//	)
func WithSession(ctx context.Context, ch Channel, fn func(Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	session, err := Setup(ctx, ch, opts...)
	if err != nil {
		return fmt.Errorf("failed to set up session: %w", err)
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			options.Logger.Warn("failed to close session", "error", closeErr)
		}
	}()

	return fn(session)
}
