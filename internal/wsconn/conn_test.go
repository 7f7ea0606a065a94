package wsconn

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/ipc-session-go/internal/config"
	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/protocol"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// newServer starts a test server handing each accepted connection to serve.
func newServer(t *testing.T, serve func(c *Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(slog.Default(), w, r)
		if err != nil {
			return
		}

		serve(c)
		<-c.Done()
		_ = c.Close()
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, slog.Default(), url)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestConn_EchoMessages(t *testing.T) {
	url := newServer(t, func(c *Conn) {
		c.Subscribe(func(msg any) {
			c.Send(msg, func(error) {})
		})
	})

	c := dial(t, url)

	var (
		mu  sync.Mutex
		got []any
	)

	c.Subscribe(func(msg any) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})

	ctx := context.Background()

	for i := range 10 {
		require.NoError(t, transport.Send(ctx, c, map[string]any{"seq": i}, "message"))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(got) == 10
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	for i, msg := range got {
		require.Equal(t, map[string]any{"seq": float64(i)}, msg)
	}
}

func TestConn_SessionPingPong(t *testing.T) {
	url := newServer(t, func(c *Conn) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		session, err := protocol.Setup(ctx, slog.Default(), c, &config.Options{
			RequestHandler: func(ctx context.Context, payload any, respond config.Responder) {
				_, _ = respond(ctx, "pong:"+payload.(string))
			},
		})
		if err != nil {
			_ = c.Close()

			return
		}

		go func() {
			<-c.Done()
			_ = session.Close()
		}()
	})

	c := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := protocol.Setup(ctx, slog.Default(), c, nil)
	require.NoError(t, err)

	defer session.Close()

	resp, err := session.SendRequest(ctx, "ping")
	require.NoError(t, err)
	require.Equal(t, "pong:ping", resp)
}

func TestConn_SkipsUndecodableFrames(t *testing.T) {
	url := newServer(t, func(c *Conn) {
		go func() {
			ctx := context.Background()
			_ = c.conn.Write(ctx, websocket.MessageText, []byte("not json"))
			_ = c.conn.Write(ctx, websocket.MessageText, []byte(`{"ok":true}`))
		}()
	})

	c := dial(t, url)

	got := make(chan any, 2)
	c.Subscribe(func(msg any) { got <- msg })

	select {
	case msg := <-got:
		require.Equal(t, map[string]any{"ok": true}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame not delivered")
	}
}

func TestConn_PeerCloseEndsConnection(t *testing.T) {
	url := newServer(t, func(c *Conn) {
		_ = c.Close()
	})

	c := dial(t, url)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not observe peer close")
	}

	require.NoError(t, c.Err())

	err := transport.Send(context.Background(), c, "ping", "request")
	require.ErrorIs(t, err, errors.ErrNotAccepted)
}

func TestConn_RefusesAfterClose(t *testing.T) {
	url := newServer(t, func(*Conn) {})

	c := dial(t, url)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.False(t, c.Send("late", func(error) {}))
	require.Equal(t, url, c.Identity().Peer)
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, slog.Default(), "ws://127.0.0.1:1/")
	require.Error(t, err)
}
