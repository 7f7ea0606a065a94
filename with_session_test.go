package ipcsession_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ipcsession "github.com/wagiedev/ipc-session-go"
)

func TestWithSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	a, b := ipcsession.Pipe()
	defer a.Close()
	defer b.Close()

	err := ipcsession.WithSession(ctx, a, func(ipcsession.Session) error {
		t.Error("callback should not be called with cancelled context")

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithSession_CallbackError(t *testing.T) {
	a, b := ipcsession.Pipe()
	defer a.Close()
	defer b.Close()

	ctx := testContext(t)

	go func() {
		_ = ipcsession.WithSession(ctx, b, func(ipcsession.Session) error {
			<-ctx.Done()

			return nil
		})
	}()

	errBoom := errors.New("boom")

	err := ipcsession.WithSession(ctx, a, func(s ipcsession.Session) error {
		require.NotEmpty(t, s.HandshakeTag())

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	// The session's listeners are gone once WithSession returns.
	require.Zero(t, a.Count())
}

func TestWithSession_SetupError(t *testing.T) {
	a, b := ipcsession.Pipe()
	defer a.Close()
	defer b.Close()

	err := ipcsession.WithSession(testContext(t), a, func(ipcsession.Session) error {
		t.Error("callback should not be called when setup fails")

		return nil
	}, ipcsession.WithHandshakeTimeout(20*time.Millisecond))
	require.ErrorIs(t, err, ipcsession.ErrHandshakeTimeout)
	require.ErrorContains(t, err, "failed to set up session")
}
