// Package metrics exposes pipeline counters through the default prometheus
// registry. They are served by the debug server when it is enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbqterm_frames_total",
		Help: "Frames read from the feed connection grouped by kind",
	}, []string{"kind"})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbqterm_messages_total",
		Help: "Text messages processed grouped by outcome",
	}, []string{"status"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbqterm_events_total",
		Help: "Decoded envelopes grouped by event kind",
	}, []string{"type"})

	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbqterm_items_appended_total",
		Help: "Items appended to the accumulated state grouped by kind",
	}, []string{"kind"})

	renderErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bbqterm_render_errors_total",
		Help: "Render calls that returned an error",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bbqterm_queue_depth",
		Help: "Messages waiting between the receiver and the aggregator",
	})

	queueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bbqterm_queue_wait_seconds",
		Help:    "Time a message spent in the queue before it was processed",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Message outcomes.
const (
	StatusDecoded   = "decoded"
	StatusMalformed = "malformed"
)

// ObserveFrame counts one frame of the given kind.
func ObserveFrame(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	framesTotal.WithLabelValues(kind).Inc()
}

// ObserveMessage records the outcome of decoding one message. eventType is
// ignored for malformed messages.
func ObserveMessage(status, eventType string) {
	messagesTotal.WithLabelValues(status).Inc()
	if status == StatusDecoded && eventType != "" {
		eventsTotal.WithLabelValues(eventType).Inc()
	}
}

// ObserveItems records how many questions and feedback entries were appended.
func ObserveItems(questions, feedbacks int) {
	if questions > 0 {
		itemsTotal.WithLabelValues("question").Add(float64(questions))
	}
	if feedbacks > 0 {
		itemsTotal.WithLabelValues("feedback").Add(float64(feedbacks))
	}
}

// ObserveRenderError counts one failed render.
func ObserveRenderError() {
	renderErrorsTotal.Inc()
}

// SetQueueDepth records the current number of queued messages.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// ObserveQueueWait records how long a message waited in the queue.
func ObserveQueueWait(d time.Duration) {
	queueWait.Observe(d.Seconds())
}
