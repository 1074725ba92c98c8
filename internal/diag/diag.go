// Package diag is the operator-facing diagnostic stream. Recoverable
// failures (bad frames, malformed messages, render errors) are written here
// as one human-readable line each and never stop the pipeline.
package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/codefionn/bbqterm/internal/logger"
)

// Kind classifies a report.
type Kind string

const (
	KindFrame     Kind = "frame"
	KindMalformed Kind = "malformed"
	KindRender    Kind = "render"
)

// Report is one diagnostic entry.
type Report struct {
	Kind Kind
	Err  error
	// Payload is the raw message for KindMalformed, echoed verbatim.
	Payload string
	Time    time.Time
}

// Summary is the single line shown in the UI footer.
func (r Report) Summary() string {
	if r.Err == nil {
		return fmt.Sprintf("[%s]", r.Kind)
	}
	return fmt.Sprintf("[%s] %v", r.Kind, r.Err)
}

// Tap receives every report after it has been written.
type Tap func(Report)

// Stream writes reports to w and mirrors them to the logger.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	log    *logger.Logger
	tap    Tap
	now    func() time.Time
	counts map[Kind]int
}

// NewStream creates a stream. A nil writer only logs, a nil logger uses the
// global one.
func NewStream(w io.Writer, log *logger.Logger) *Stream {
	if w == nil {
		w = io.Discard
	}
	if log == nil {
		log = logger.Global()
	}
	return &Stream{
		w:      w,
		log:    log.WithPrefix("diag"),
		now:    time.Now,
		counts: make(map[Kind]int),
	}
}

// SetTap installs fn as the tap. Passing nil removes it.
func (s *Stream) SetTap(fn Tap) {
	s.mu.Lock()
	s.tap = fn
	s.mu.Unlock()
}

// Report appends r. Write failures are ignored.
func (s *Stream) Report(r Report) {
	s.mu.Lock()
	if r.Time.IsZero() {
		r.Time = s.now()
	}
	s.counts[r.Kind]++

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.Time.Format("15:04:05"), r.Summary())
	echo := r.Kind == KindMalformed || r.Payload != ""
	switch {
	case echo && r.Payload == "":
		b.WriteString("    payload: \"\"\n")
	case echo:
		fmt.Fprintf(&b, "    payload: %s\n", r.Payload)
	}
	_, _ = io.WriteString(s.w, b.String())
	tap := s.tap
	s.mu.Unlock()

	if echo {
		s.log.Warn("%s: %v; payload=%q", r.Kind, r.Err, r.Payload)
	} else {
		s.log.Warn("%s: %v", r.Kind, r.Err)
	}

	if tap != nil {
		tap(r)
	}
}

// Frame reports a transport frame error.
func (s *Stream) Frame(err error) {
	s.Report(Report{Kind: KindFrame, Err: err})
}

// Malformed reports a message that failed to decode, with its raw text.
func (s *Stream) Malformed(err error, raw string) {
	s.Report(Report{Kind: KindMalformed, Err: err, Payload: raw})
}

// Render reports a renderer failure.
func (s *Stream) Render(err error) {
	s.Report(Report{Kind: KindRender, Err: err})
}

// Count returns how many reports of kind have been written.
func (s *Stream) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[kind]
}
