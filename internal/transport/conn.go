package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/gorilla/websocket"
)

// Options tune the dialer and the connection.
type Options struct {
	// HandshakeTimeout bounds the opening handshake. Zero means no timeout
	// beyond the context.
	HandshakeTimeout time.Duration
	// ReadLimit caps the size of a single frame.
	ReadLimit int64
	// Header is sent with the handshake request.
	Header http.Header
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ReadLimit: consts.DefaultReadLimit,
	}
}

// Conn is an open feed connection.
type Conn struct {
	ws *websocket.Conn

	// pending holds frames produced by control handlers during a read;
	// only the reading goroutine touches it.
	pending []Frame
	done    bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial opens the WebSocket at rawURL. Handshake failures are returned as
// *ConnectionError.
func Dial(ctx context.Context, rawURL string, opts Options) (*Conn, error) {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = consts.DefaultReadLimit
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
		ReadBufferSize:   consts.DefaultHandshakeBufferSize,
		WriteBufferSize:  consts.DefaultHandshakeBufferSize,
	}

	ws, resp, err := dialer.DialContext(ctx, rawURL, opts.Header)
	if err != nil {
		connErr := &ConnectionError{URL: RedactURL(rawURL), Err: err}
		if resp != nil {
			connErr.StatusCode = resp.StatusCode
			connErr.Status = resp.Status
		}
		return nil, connErr
	}

	return newConn(ws, opts.ReadLimit), nil
}

func newConn(ws *websocket.Conn, readLimit int64) *Conn {
	c := &Conn{ws: ws}
	ws.SetReadLimit(readLimit)

	answerPing := ws.PingHandler()
	ws.SetPingHandler(func(appData string) error {
		c.pending = append(c.pending, Frame{Kind: FrameControl, Control: ControlPing, Size: len(appData)})
		return answerPing(appData)
	})
	ws.SetPongHandler(func(appData string) error {
		c.pending = append(c.pending, Frame{Kind: FrameControl, Control: ControlPong, Size: len(appData)})
		return nil
	})
	return c
}

// Next returns the next frame. It blocks until one arrives; the only way to
// interrupt a blocked Next is Close. After the stream has ended Next returns
// io.EOF, or the context error if ctx was cancelled.
func (c *Conn) Next(ctx context.Context) (Frame, error) {
	if f, ok := c.popPending(); ok {
		return f, nil
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if c.done {
		return Frame{}, io.EOF
	}

	msgType, data, err := c.ws.ReadMessage()
	if err != nil {
		c.done = true
		if c.closed.Load() {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Frame{}, ctxErr
			}
			return Frame{}, io.EOF
		}
		c.pending = append(c.pending, classifyReadError(err))
	} else {
		switch msgType {
		case websocket.TextMessage:
			c.pending = append(c.pending, TextFrame(string(data)))
		default:
			c.pending = append(c.pending, Frame{Kind: FrameBinary, Size: len(data)})
		}
	}

	f, _ := c.popPending()
	return f, nil
}

func (c *Conn) popPending() (Frame, bool) {
	if len(c.pending) == 0 {
		return Frame{}, false
	}
	f := c.pending[0]
	c.pending[0] = Frame{}
	c.pending = c.pending[1:]
	return f, true
}

// classifyReadError turns the terminal read error into the last frame of
// the stream: an orderly close becomes a control frame, anything else an
// error frame.
func classifyReadError(err error) Frame {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) &&
		!websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return Frame{Kind: FrameControl, Control: ControlClose}
	}
	return ErrorFrame(err)
}

// RemoteAddr returns the server address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Close sends a normal-closure frame and closes the socket. It is safe to
// call more than once and from any goroutine.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(consts.Timeout1Second))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
