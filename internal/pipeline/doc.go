// Package pipeline is the concurrency core of bbqterm.
//
// A Receiver reads frames from the feed connection and forwards the text
// payloads, unparsed, into a bounded Queue. An Aggregator drains the queue,
// decodes each message, folds it into the accumulated state and hands the
// full state to a Renderer.
//
//	conn ──Next──▶ Receiver ──Send (blocks when full)──▶ Queue ──▶ Aggregator ──▶ Renderer
//
// The queue is the only thing the two sides share. The accumulated state is
// owned by the aggregator's goroutine and is never locked.
package pipeline
