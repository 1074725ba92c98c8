package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/codefionn/bbqterm/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays frames and then reports the end of the stream.
type sliceSource struct {
	mu     sync.Mutex
	frames []transport.Frame
}

func (s *sliceSource) Next(ctx context.Context) (transport.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return transport.Frame{}, err
	}
	if len(s.frames) == 0 {
		return transport.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

// blockingSource never yields a frame; it only observes cancellation.
type blockingSource struct{}

func (blockingSource) Next(ctx context.Context) (transport.Frame, error) {
	<-ctx.Done()
	return transport.Frame{}, ctx.Err()
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(logger.LevelNone, io.Discard, "")
}

func texts(raws ...string) []transport.Frame {
	frames := make([]transport.Frame, 0, len(raws))
	for _, raw := range raws {
		frames = append(frames, transport.TextFrame(raw))
	}
	return frames
}

func drain(q *Queue) []string {
	var out []string
	for msg := range q.C() {
		out = append(out, msg.Raw)
	}
	return out
}

func TestReceiverForwardsOnlyText(t *testing.T) {
	var diagOut bytes.Buffer
	stream := diag.NewStream(&diagOut, quietLogger())

	src := &sliceSource{frames: []transport.Frame{
		transport.TextFrame("a"),
		{Kind: transport.FrameBinary, Size: 4},
		{Kind: transport.FrameControl, Control: transport.ControlPing},
		transport.ErrorFrame(errors.New("bad frame")),
		transport.TextFrame("b"),
		{Kind: transport.FrameControl, Control: transport.ControlClose},
	}}
	q := mustQueue(t, 10)

	err := NewReceiver(src, q, stream, quietLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, drain(q))
	assert.Equal(t, 1, stream.Count(diag.KindFrame))
	assert.Contains(t, diagOut.String(), "[frame] read frame: bad frame")
}

func TestReceiverBackpressureDropsNothing(t *testing.T) {
	raws := []string{"1", "2", "3", "4", "5", "6", "7"}
	q := mustQueue(t, 2)
	r := NewReceiver(&sliceSource{frames: texts(raws...)}, q, nil, quietLogger())

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	require.Eventually(t, func() bool { return q.Len() == 2 }, 5*time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("receiver finished while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, raws, drain(q))
	require.NoError(t, <-done)
}

func TestReceiverBackpressureAtDefaultCapacity(t *testing.T) {
	raws := make([]string, consts.DefaultQueueCapacity+25)
	for i := range raws {
		raws[i] = strconv.Itoa(i)
	}
	q := mustQueue(t, consts.DefaultQueueCapacity)
	src := &sliceSource{frames: texts(raws...)}
	r := NewReceiver(src, q, nil, quietLogger())

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	require.Eventually(t, func() bool { return q.Len() == consts.DefaultQueueCapacity }, 5*time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("receiver finished while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, consts.DefaultQueueCapacity, q.Len())

	assert.Equal(t, raws, drain(q))
	require.NoError(t, <-done)
}

func TestReceiverCancelledWhileWaitingForFrame(t *testing.T) {
	q := mustQueue(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewReceiver(blockingSource{}, q, nil, quietLogger()).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver ignored cancellation")
	}
	_, open := <-q.C()
	assert.False(t, open, "queue must be closed when the receiver stops")
}

func TestReceiverCancelledWhileQueueFull(t *testing.T) {
	q := mustQueue(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- NewReceiver(&sliceSource{frames: texts("a", "b")}, q, nil, quietLogger()).Run(ctx)
	}()

	require.Eventually(t, func() bool { return q.Len() == 1 }, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver ignored cancellation")
	}
}

func TestReceiverPropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := sourceFunc(func(context.Context) (transport.Frame, error) {
		return transport.Frame{}, boom
	})

	err := NewReceiver(src, mustQueue(t, 1), nil, quietLogger()).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

type sourceFunc func(ctx context.Context) (transport.Frame, error)

func (f sourceFunc) Next(ctx context.Context) (transport.Frame, error) {
	return f(ctx)
}
