package handshake

import (
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/ipc-session-go/internal/envelope"
	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// mockChannel records every sent message and lets the test inject inbound ones.
type mockChannel struct {
	transport.Listeners

	refuse bool
	sent   chan any
}

func newMockChannel() *mockChannel {
	return &mockChannel{sent: make(chan any, 10)}
}

func (m *mockChannel) Send(msg any, onComplete func(error)) bool {
	if m.refuse {
		return false
	}

	m.sent <- msg

	go onComplete(nil)

	return true
}

func (m *mockChannel) nextSent(t *testing.T) any {
	t.Helper()

	select {
	case msg := <-m.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected a message to be sent")

		return nil
	}
}

type runResult struct {
	tag string
	err error
}

func runAsync(ctx context.Context, c *Coordinator) <-chan runResult {
	out := make(chan runResult, 1)

	go func() {
		tag, err := c.Run(ctx)
		out <- runResult{tag: tag, err: err}
	}()

	return out
}

func await(t *testing.T, results <-chan runResult) runResult {
	t.Helper()

	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("handshake did not finish")

		return runResult{}
	}
}

func TestRun_SendsRequestAndWaitsForResponse(t *testing.T) {
	ch := newMockChannel()
	c := New(slog.Default(), ch)

	results := runAsync(context.Background(), c)

	req, ok := envelope.AsHandshakeRequest(ch.nextSent(t))
	require.True(t, ok, "first message should be a handshake request")

	ch.Dispatch(envelope.NewHandshakeResponseTo(req))

	r := await(t, results)
	require.NoError(t, r.err)
	require.Equal(t, TagSendGet, r.tag)
	require.Equal(t, 0, ch.Count())
	require.Equal(t, StateResolved, c.State())
}

func TestRun_WaitsForRequestAndSendsResponse(t *testing.T) {
	ch := newMockChannel()
	c := New(slog.Default(), ch)

	results := runAsync(context.Background(), c)

	require.True(t, envelope.IsHandshakeRequest(ch.nextSent(t)))

	ch.Dispatch(envelope.NewHandshakeRequest("peer-handshake-id"))

	require.True(t, envelope.IsHandshakeResponseTo(ch.nextSent(t), "peer-handshake-id"))

	r := await(t, results)
	require.NoError(t, r.err)
	require.Equal(t, TagGetSend, r.tag)
	require.Equal(t, 0, ch.Count())
}

func TestRun_ResolvesOnceWhenBothSequencesExecute(t *testing.T) {
	ch := newMockChannel()
	c := New(slog.Default(), ch)

	results := runAsync(context.Background(), c)

	req, ok := envelope.AsHandshakeRequest(ch.nextSent(t))
	require.True(t, ok)

	ch.Dispatch(envelope.NewHandshakeRequest("peer-handshake-id"))
	ch.Dispatch(envelope.NewHandshakeResponseTo(req))

	r := await(t, results)
	require.NoError(t, r.err)
	require.Contains(t, []string{TagSendGet, TagGetSend}, r.tag)
	require.Equal(t, 0, ch.Count())
}

func TestRun_IgnoresForeignAndMismatchedMessages(t *testing.T) {
	ch := newMockChannel()
	c := New(slog.Default(), ch)

	results := runAsync(context.Background(), c)

	req, ok := envelope.AsHandshakeRequest(ch.nextSent(t))
	require.True(t, ok)

	ch.Dispatch(map[string]any{"hello": "world"})
	ch.Dispatch(envelope.NewHandshakeResponseTo(envelope.NewHandshakeRequest("someone-else")))
	ch.Dispatch(envelope.NewRequest("r1", nil))

	select {
	case r := <-results:
		t.Fatalf("handshake resolved early: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}

	ch.Dispatch(envelope.NewHandshakeResponseTo(req))

	r := await(t, results)
	require.NoError(t, r.err)
	require.Equal(t, TagSendGet, r.tag)
}

func TestRun_SendRejected(t *testing.T) {
	ch := newMockChannel()
	ch.refuse = true
	c := New(slog.Default(), ch)

	_, err := c.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrNotAccepted)

	sendErr, ok := stderrors.AsType[*errors.SendError](err)
	require.True(t, ok)
	require.Equal(t, "handshake request", sendErr.Kind)

	require.Equal(t, 0, ch.Count())
	require.Equal(t, StateFailed, c.State())
}

func TestRun_ContextCancelledWithoutPeer(t *testing.T) {
	ch := newMockChannel()
	c := New(slog.Default(), ch)

	ctx, cancel := context.WithCancel(context.Background())
	results := runAsync(ctx, c)

	ch.nextSent(t)
	require.Equal(t, 2, ch.Count())

	cancel()

	r := await(t, results)
	require.ErrorIs(t, r.err, context.Canceled)
	require.Equal(t, 0, ch.Count())
	require.Equal(t, StateFailed, c.State())
}

func TestRun_ReturnsContextCause(t *testing.T) {
	ch := newMockChannel()
	c := New(slog.Default(), ch)

	ctx, cancel := context.WithTimeoutCause(context.Background(), 20*time.Millisecond, errors.ErrHandshakeTimeout)
	defer cancel()

	_, err := c.Run(ctx)
	require.ErrorIs(t, err, errors.ErrHandshakeTimeout)
}

func TestRun_OnlyOnce(t *testing.T) {
	ch := newMockChannel()
	ch.refuse = true
	c := New(slog.Default(), ch)

	_, err := c.Run(context.Background())
	require.Error(t, err)

	_, err = c.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrHandshakeAlreadyRun)
}

func TestRun_PeersRacingSimultaneously(t *testing.T) {
	for range 50 {
		a, b := transport.Pipe(slog.Default())

		resultsA := runAsync(context.Background(), New(slog.Default(), a))
		resultsB := runAsync(context.Background(), New(slog.Default(), b))

		ra := await(t, resultsA)
		rb := await(t, resultsB)

		require.NoError(t, ra.err)
		require.NoError(t, rb.err)
		require.Contains(t, []string{TagSendGet, TagGetSend}, ra.tag)
		require.Contains(t, []string{TagSendGet, TagGetSend}, rb.tag)
		require.Equal(t, 0, a.Count())
		require.Equal(t, 0, b.Count())

		require.NoError(t, a.Close())
		require.NoError(t, b.Close())
	}
}

func TestRun_LatePeer(t *testing.T) {
	a, b := transport.Pipe(slog.Default())
	defer a.Close()
	defer b.Close()

	resultsA := runAsync(context.Background(), New(slog.Default(), a))

	// A's first request reaches B before B listens and is dropped.
	time.Sleep(50 * time.Millisecond)

	resultsB := runAsync(context.Background(), New(slog.Default(), b))

	ra := await(t, resultsA)
	rb := await(t, resultsB)

	require.NoError(t, ra.err)
	require.NoError(t, rb.err)
	require.Equal(t, TagGetSend, ra.tag)
	require.Equal(t, TagSendGet, rb.tag)
	require.Equal(t, 0, a.Count())
	require.Equal(t, 0, b.Count())
}

func TestRun_InitiatorAgainstPlainResponder(t *testing.T) {
	a, b := transport.Pipe(slog.Default())
	defer a.Close()
	defer b.Close()

	responded := make(chan struct{}, 1)
	sub := b.Subscribe(func(msg any) {
		if req, ok := envelope.AsHandshakeRequest(msg); ok {
			go func() {
				_ = transport.Send(context.Background(), b, envelope.NewHandshakeResponseTo(req), "handshake response")
				responded <- struct{}{}
			}()
		}
	})
	defer sub.Unsubscribe()

	tag, err := New(slog.Default(), a).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, TagSendGet, tag)
	require.Equal(t, 0, a.Count())

	select {
	case <-responded:
	case <-time.After(2 * time.Second):
		t.Fatal("responder did not answer")
	}
}

// stallingChannel accepts handshake requests but never reports their
// completion. Every other message completes immediately.
type stallingChannel struct {
	transport.Listeners

	sent chan any
}

func (s *stallingChannel) Send(msg any, onComplete func(error)) bool {
	s.sent <- msg

	if !envelope.IsHandshakeRequest(msg) {
		go onComplete(nil)
	}

	return true
}

func TestRun_StalledRequestDoesNotBlockResponder(t *testing.T) {
	ch := &stallingChannel{sent: make(chan any, 10)}
	c := New(slog.Default(), ch)

	results := runAsync(context.Background(), c)

	select {
	case msg := <-ch.sent:
		require.True(t, envelope.IsHandshakeRequest(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("expected a handshake request")
	}

	ch.Dispatch(map[string]any{
		envelope.KeyHandshakeUID:  "peer",
		envelope.KeyHandshakeType: envelope.TypeHandshakeRequest,
	})

	r := await(t, results)
	require.NoError(t, r.err)
	require.Equal(t, TagGetSend, r.tag)
	require.Equal(t, StateResolved, c.State())
	require.Equal(t, 0, ch.Count())
}

func TestRun_StalledRequestReturnsContextCause(t *testing.T) {
	ch := &stallingChannel{sent: make(chan any, 10)}
	c := New(slog.Default(), ch)

	ctx, cancel := context.WithTimeoutCause(context.Background(), 20*time.Millisecond, errors.ErrHandshakeTimeout)
	defer cancel()

	_, err := c.Run(ctx)
	require.ErrorIs(t, err, errors.ErrHandshakeTimeout)
	require.Equal(t, StateFailed, c.State())
	require.Equal(t, 0, ch.Count())
}

func TestState_String(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "racing", StateRacing.String())
	require.Equal(t, "resolved", StateResolved.String())
	require.Equal(t, "failed", StateFailed.String())
	require.Equal(t, "state(9)", State(9).String())
}
