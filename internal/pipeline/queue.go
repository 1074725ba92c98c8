package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codefionn/bbqterm/internal/metrics"
)

// Message is one raw text payload in the queue.
type Message struct {
	Raw      string
	Enqueued time.Time
}

// Queue is a bounded FIFO of raw messages with a blocking send and a
// non-blocking receive. It has a single producer, which is also the only
// caller of Close.
type Queue struct {
	ch        chan Message
	closeOnce sync.Once
}

// NewQueue creates a queue holding up to capacity messages.
func NewQueue(capacity int) (*Queue, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("queue capacity must be at least 1, got %d", capacity)
	}
	return &Queue{ch: make(chan Message, capacity)}, nil
}

// Send enqueues raw, blocking while the queue is full. It returns ctx.Err()
// if ctx is cancelled first; nothing is dropped otherwise.
func (q *Queue) Send(ctx context.Context, raw string) error {
	msg := Message{Raw: raw, Enqueued: time.Now()}

	// Free space wins over an already-cancelled context.
	select {
	case q.ch <- msg:
		metrics.SetQueueDepth(len(q.ch))
		return nil
	default:
	}

	select {
	case q.ch <- msg:
		metrics.SetQueueDepth(len(q.ch))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryReceive returns the oldest message without blocking. ok is false when
// the queue is empty or closed and drained.
func (q *Queue) TryReceive() (msg Message, ok bool) {
	select {
	case msg, ok = <-q.ch:
		if ok {
			metrics.SetQueueDepth(len(q.ch))
		}
		return msg, ok
	default:
		return Message{}, false
	}
}

// C exposes the receive side for callers that want to select on it.
func (q *Queue) C() <-chan Message {
	return q.ch
}

// Close marks the end of input. Queued messages can still be received.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
