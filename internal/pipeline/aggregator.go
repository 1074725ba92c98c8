package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/codefionn/bbqterm/internal/metrics"
)

// Renderer paints the full accumulated state. It is called synchronously
// from the aggregator and should return quickly. Errors are reported and
// never stop the loop.
type Renderer interface {
	Render(questions []feed.Question, feedbacks []feed.Feedback) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(questions []feed.Question, feedbacks []feed.Feedback) error

// Render calls f.
func (f RendererFunc) Render(questions []feed.Question, feedbacks []feed.Feedback) error {
	return f(questions, feedbacks)
}

// Notifier is told about the questions appended by one message.
type Notifier interface {
	NotifyQuestions(questions []feed.Question)
}

// RenderError wraps a failure returned by the Renderer. The state is kept.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithNotifier sets the notifier for newly appended questions.
func WithNotifier(n Notifier) AggregatorOption {
	return func(a *Aggregator) {
		a.notifier = n
	}
}

// WithDiagnostics sets the stream malformed messages and render failures
// are reported to.
func WithDiagnostics(s *diag.Stream) AggregatorOption {
	return func(a *Aggregator) {
		a.diag = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// Aggregator owns the accumulated state. All of its methods must be called
// from one goroutine.
type Aggregator struct {
	queue    *Queue
	state    *feed.State
	renderer Renderer
	notifier Notifier
	diag     *diag.Stream
	logger   *logger.Logger
}

// NewAggregator creates an aggregator with an empty state.
func NewAggregator(queue *Queue, renderer Renderer, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		queue:    queue,
		state:    feed.NewState(),
		renderer: renderer,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Global()
	}
	a.logger = a.logger.WithPrefix("aggregator")
	if a.diag == nil {
		a.diag = diag.NewStream(nil, a.logger)
	}
	return a
}

// Process runs one message through decode, normalize and render. A decode
// failure is reported with the raw payload and leaves the state untouched.
// A render failure is reported as *RenderError; the state is not rolled
// back.
func (a *Aggregator) Process(raw string) error {
	env, err := feed.DecodeString(raw)
	if err != nil {
		metrics.ObserveMessage(metrics.StatusMalformed, "")
		a.diag.Malformed(err, raw)
		return err
	}
	metrics.ObserveMessage(metrics.StatusDecoded, string(env.Kind))

	if !env.Kind.ActedUpon() {
		a.logger.Debug("%s event recognized but not acted upon, appending its %d items", env.Kind, env.ItemCount())
	}

	delta := a.state.Normalize(env)
	metrics.ObserveItems(len(delta.Questions), len(delta.Feedbacks))

	if a.notifier != nil && len(delta.Questions) > 0 {
		a.notifier.NotifyQuestions(append([]feed.Question(nil), delta.Questions...))
	}

	if a.renderer == nil {
		return nil
	}
	if err := a.renderer.Render(a.state.Questions(), a.state.Feedbacks()); err != nil {
		metrics.ObserveRenderError()
		renderErr := &RenderError{Err: err}
		a.diag.Render(renderErr)
		return renderErr
	}
	return nil
}

// Step processes at most one queued message without blocking and reports
// whether one was available.
func (a *Aggregator) Step() bool {
	msg, ok := a.queue.TryReceive()
	if !ok {
		return false
	}
	a.handle(msg)
	return true
}

// Run processes messages as they arrive. It suspends while the queue is
// empty and returns ctx.Err() on cancellation, or nil once the queue has
// been closed and drained.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-a.queue.C():
			if !ok {
				questions, feedbacks := a.state.Counts()
				a.logger.Info("queue closed, %d questions and %d feedback entries received",
					questions, feedbacks)
				return nil
			}
			metrics.SetQueueDepth(a.queue.Len())
			a.handle(msg)
		}
	}
}

func (a *Aggregator) handle(msg Message) {
	metrics.ObserveQueueWait(time.Since(msg.Enqueued))
	// Errors have already been reported to the diagnostic stream.
	_ = a.Process(msg.Raw)
}

// Snapshot returns a copy of the accumulated state. Like every other method
// it must not race with Run.
func (a *Aggregator) Snapshot() feed.Snapshot {
	return a.state.Snapshot()
}
