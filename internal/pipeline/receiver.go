package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/codefionn/bbqterm/internal/metrics"
	"github.com/codefionn/bbqterm/internal/transport"
)

// FrameSource yields frames until it returns io.EOF. *transport.Conn
// implements it.
type FrameSource interface {
	Next(ctx context.Context) (transport.Frame, error)
}

// Receiver forwards text frames from a FrameSource into a Queue.
type Receiver struct {
	src    FrameSource
	queue  *Queue
	diag   *diag.Stream
	logger *logger.Logger
}

// NewReceiver creates a receiver. A nil stream writes nowhere but the log.
func NewReceiver(src FrameSource, queue *Queue, stream *diag.Stream, log *logger.Logger) *Receiver {
	if log == nil {
		log = logger.Global()
	}
	if stream == nil {
		stream = diag.NewStream(nil, log)
	}
	return &Receiver{
		src:    src,
		queue:  queue,
		diag:   stream,
		logger: log.WithPrefix("receiver"),
	}
}

// Run reads until the stream ends or ctx is cancelled. Text payloads are
// queued in arrival order; binary and control frames are dropped; frame
// errors are reported and reading continues. Run closes the queue when it
// returns. It returns nil when the stream ends and ctx.Err() when cancelled.
func (r *Receiver) Run(ctx context.Context) error {
	defer r.queue.Close()

	var forwarded int
	for {
		frame, err := r.src.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				r.logger.Info("stream ended after %d messages", forwarded)
				return nil
			}
			return err
		}

		metrics.ObserveFrame(frame.Kind.String())

		switch frame.Kind {
		case transport.FrameText:
			if err := r.queue.Send(ctx, frame.Text); err != nil {
				return err
			}
			forwarded++
		case transport.FrameError:
			r.diag.Frame(frame.Err)
		default:
			r.logger.Debug("discarding %s", frame)
		}
	}
}
