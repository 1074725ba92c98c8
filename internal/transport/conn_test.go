package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// newTestServer upgrades every request and hands the socket to script.
// The handler drains the socket afterwards so the client's close reply
// is consumed before the connection goes away.
func newTestServer(t *testing.T, script func(ws *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		script(ws)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func collect(t *testing.T, c *Conn) []Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var frames []Frame
	for {
		f, err := c.Next(ctx)
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func TestConnFrameOrder(t *testing.T) {
	srv := newTestServer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"init","data":[]}`))
		_ = ws.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02, 0x03})
		_ = ws.WriteControl(websocket.PingMessage, []byte("hb"), time.Now().Add(time.Second))
		_ = ws.WriteMessage(websocket.TextMessage, []byte("second"))
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	conn, err := Dial(context.Background(), wsURL(srv, "/ws/teacher?token=abc"), DefaultOptions())
	require.NoError(t, err)
	defer conn.Close()

	frames := collect(t, conn)
	require.Len(t, frames, 5)

	assert.Equal(t, FrameText, frames[0].Kind)
	assert.Equal(t, `{"type":"init","data":[]}`, frames[0].Text)

	assert.Equal(t, FrameBinary, frames[1].Kind)
	assert.Equal(t, 3, frames[1].Size)
	assert.Empty(t, frames[1].Text)

	assert.Equal(t, FrameControl, frames[2].Kind)
	assert.Equal(t, ControlPing, frames[2].Control)

	assert.Equal(t, FrameText, frames[3].Kind)
	assert.Equal(t, "second", frames[3].Text)

	assert.Equal(t, FrameControl, frames[4].Kind)
	assert.Equal(t, ControlClose, frames[4].Control)

	// The stream stays ended.
	_, err = conn.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestConnAbruptDisconnectYieldsErrorFrame(t *testing.T) {
	srv := newTestServer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte("only"))
		_ = ws.UnderlyingConn().Close()
	})

	conn, err := Dial(context.Background(), wsURL(srv, "/"), DefaultOptions())
	require.NoError(t, err)
	defer conn.Close()

	frames := collect(t, conn)
	require.Len(t, frames, 2)
	assert.Equal(t, FrameText, frames[0].Kind)
	assert.Equal(t, FrameError, frames[1].Kind)

	var frameErr *FrameError
	assert.ErrorAs(t, frames[1].Err, &frameErr)
}

func TestConnReadLimitYieldsErrorFrame(t *testing.T) {
	srv := newTestServer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 512)))
	})

	conn, err := Dial(context.Background(), wsURL(srv, "/"), Options{ReadLimit: 64})
	require.NoError(t, err)
	defer conn.Close()

	frames := collect(t, conn)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameError, frames[0].Kind)
}

func TestDialRejectedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv, "/ws/teacher?token=s3cret"), DefaultOptions())
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, http.StatusUnauthorized, connErr.StatusCode)
	assert.NotContains(t, err.Error(), "s3cret")
	assert.Contains(t, err.Error(), "/ws/teacher")
}

func TestDialUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := wsURL(srv, "/ws/teacher")
	srv.Close()

	_, err := Dial(context.Background(), addr, Options{HandshakeTimeout: time.Second})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Zero(t, connErr.StatusCode)
}

func TestCloseUnblocksNext(t *testing.T) {
	srv := newTestServer(t, func(ws *websocket.Conn) {})

	conn, err := Dial(context.Background(), wsURL(srv, "/"), DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := conn.Next(ctx)
		done <- err
	}()

	cancel()
	require.NoError(t, conn.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after Close")
	}

	// Close is idempotent.
	assert.NotPanics(t, func() { _ = conn.Close() })
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ws://localhost:8000/ws/teacher?token=abc", "ws://localhost:8000/ws/teacher"},
		{"wss://user:pw@example.com/ws/teacher?token=abc#frag", "wss://example.com/ws/teacher"},
		{"ws://localhost:8000", "ws://localhost:8000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactURL(tt.in))
		})
	}
}

func TestFrameString(t *testing.T) {
	assert.Equal(t, "text(5 bytes)", TextFrame("hello").String())
	assert.Equal(t, "control(ping)", Frame{Kind: FrameControl, Control: ControlPing}.String())
	assert.Equal(t, "error(read frame: boom)", ErrorFrame(errors.New("boom")).String())
}
