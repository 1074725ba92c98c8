package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/theme"
)

// ErrRendererClosed is returned by Render once the program has exited.
var ErrRendererClosed = errors.New("terminal UI has exited")

// Renderer forwards state updates into a running bubbletea program.
type Renderer struct {
	program *tea.Program
	send    func(tea.Msg)

	done      chan struct{}
	closeOnce sync.Once
}

// NewRenderer wraps m in a full screen program.
func NewRenderer(m *Model, opts ...tea.ProgramOption) *Renderer {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(m, opts...)
	return &Renderer{
		program: p,
		send:    p.Send,
		done:    make(chan struct{}),
	}
}

// Run runs the program until the user quits or ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	defer r.markClosed()

	stop := context.AfterFunc(ctx, r.program.Quit)
	defer stop()

	if _, err := r.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}

// Done is closed once the program has exited.
func (r *Renderer) Done() <-chan struct{} {
	return r.done
}

func (r *Renderer) markClosed() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Renderer) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Render hands a snapshot of the state to the program.
func (r *Renderer) Render(questions []feed.Question, feedbacks []feed.Feedback) error {
	if r.closed() {
		return ErrRendererClosed
	}
	r.send(SnapshotMsg{Snapshot: feed.Snapshot{Questions: questions, Feedbacks: feedbacks}})
	return nil
}

// SetStatus updates the connection status in the header.
func (r *Renderer) SetStatus(status ConnStatus, err error) {
	if !r.closed() {
		r.send(StatusMsg{Status: status, Err: err})
	}
}

// Diagnostic shows a report in the footer. It can be installed as a
// diag.Stream tap.
func (r *Renderer) Diagnostic(report diag.Report) {
	if !r.closed() {
		r.send(DiagnosticMsg{Report: report})
	}
}

// SetTheme applies a reloaded theme. Failed reloads keep the current one.
func (r *Renderer) SetTheme(t theme.Theme, err error) {
	if err != nil || r.closed() {
		return
	}
	r.send(ThemeMsg{Theme: t})
}

// PlainRenderer prints a line per update followed by the entries that are
// new since the previous update. It is used when stdout is not a terminal.
type PlainRenderer struct {
	mu        sync.Mutex
	w         io.Writer
	now       func() time.Time
	questions int
	feedbacks int
}

// NewPlainRenderer writes to w.
func NewPlainRenderer(w io.Writer) *PlainRenderer {
	return &PlainRenderer{w: w, now: time.Now}
}

// Render prints the update.
func (p *PlainRenderer) Render(questions []feed.Question, feedbacks []feed.Feedback) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sb := acquireBuilder()
	fmt.Fprintf(sb, "[%s] questions=%d feedback=%d\n", p.now().Format("15:04:05"), len(questions), len(feedbacks))
	for _, q := range questions[min(p.questions, len(questions)):] {
		fmt.Fprintf(sb, "  Q %s %s: %s\n", q.ID, q.Student, oneLine(q.Question))
	}
	for _, f := range feedbacks[min(p.feedbacks, len(feedbacks)):] {
		fmt.Fprintf(sb, "  F %s: %s\n", f.Student, oneLine(f.Feedback))
	}
	p.questions, p.feedbacks = len(questions), len(feedbacks)

	_, err := io.WriteString(p.w, builderString(sb))
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
