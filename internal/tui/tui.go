// Package tui is the full screen teacher view: questions on the left,
// feedback on the right, connection state in the header and the latest
// diagnostic in the footer.
package tui

import (
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/codefionn/bbqterm/internal/theme"
	"golang.org/x/term"
)

const (
	// headerHeight is the title line plus the separator
	headerHeight = 2
	// paneGap is the number of columns between the two panes
	paneGap = 1
	// minPaneWidth is the smallest outer width of a pane
	minPaneWidth = 24
)

type pane int

const (
	paneQuestions pane = iota
	paneFeedback
)

// diagExpiredMsg triggers a redraw once the footer diagnostic is stale.
type diagExpiredMsg struct{}

// Options configure a Model.
type Options struct {
	// Session is the short session id shown in the header.
	Session string
	// Server is the endpoint shown in the header. It must not carry the token.
	Server   string
	Theme    theme.Theme
	Markdown bool
}

// Model is the bubbletea model of the teacher view.
type Model struct {
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	questionsVP viewport.Model
	feedbackVP  viewport.Model
	focus       pane

	questions  []feed.Question
	feedbacks  []feed.Feedback
	updates    int
	lastUpdate time.Time

	status    ConnStatus
	statusErr error
	session   string
	server    string

	lastDiag         *diag.Report
	diagVisibleUntil time.Time

	styles styles

	markdown         bool
	renderer         *glamour.TermRenderer
	rendererCache    map[int]*glamour.TermRenderer
	rendererInFlight bool
	wrapWidth        int

	width    int
	height   int
	ready    bool
	quitting bool

	now func() time.Time
}

// New creates the model. The terminal size is probed right away so the
// first frame is laid out correctly.
func New(opts Options) *Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := &Model{
		keys:          keys,
		help:          help.New(),
		spinner:       sp,
		questionsVP:   viewport.New(minPaneWidth, 1),
		feedbackVP:    viewport.New(minPaneWidth, 1),
		status:        StatusConnecting,
		session:       opts.Session,
		server:        opts.Server,
		markdown:      opts.Markdown,
		rendererCache: make(map[int]*glamour.TermRenderer),
		now:           time.Now,
	}
	m.setTheme(opts.Theme)

	if width, height, ok := detectTerminalSize(); ok {
		m.applyWindowSize(width, height)
	}
	return m
}

func detectTerminalSize() (int, int, bool) {
	candidates := []*os.File{os.Stdout, os.Stdin, os.Stderr}
	for _, f := range candidates {
		if f == nil {
			continue
		}
		fd := int(f.Fd())
		if !term.IsTerminal(fd) {
			continue
		}
		if width, height, err := term.GetSize(fd); err == nil && width > 0 && height > 0 {
			return width, height, true
		}
	}
	return 0, 0, false
}

func (m *Model) setTheme(t theme.Theme) {
	m.styles = newStyles(t)
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(t.ConnectedColor))
}

func (m *Model) Init() tea.Cmd {
	initialWindowSize := func() tea.Msg {
		if width, height, ok := detectTerminalSize(); ok {
			return tea.WindowSizeMsg{Width: width, Height: height}
		}
		return nil
	}

	return tea.Batch(
		m.spinner.Tick,
		initialWindowSize,
		m.ensureRenderer(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cmd := m.applyWindowSize(msg.Width, msg.Height)
		m.refreshPanes()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.questions = msg.Snapshot.Questions
		m.feedbacks = msg.Snapshot.Feedbacks
		m.updates++
		m.lastUpdate = m.now()
		if m.status == StatusConnecting {
			m.status = StatusLive
		}
		m.refreshPanes()
		return m, nil

	case StatusMsg:
		m.status = msg.Status
		m.statusErr = msg.Err
		m.refreshPanes()
		return m, nil

	case DiagnosticMsg:
		report := msg.Report
		m.lastDiag = &report
		m.diagVisibleUntil = m.now().Add(consts.DiagnosticVisibleFor)
		return m, tea.Tick(consts.DiagnosticVisibleFor, func(time.Time) tea.Msg {
			return diagExpiredMsg{}
		})

	case diagExpiredMsg:
		return m, nil

	case ThemeMsg:
		m.setTheme(msg.Theme)
		m.refreshPanes()
		return m, nil

	case rendererReadyMsg:
		m.rendererInFlight = false
		if msg.err != nil {
			logger.Warn("markdown renderer unavailable: %v", msg.err)
			return m, nil
		}
		m.rendererCache[msg.width] = msg.renderer
		if msg.width != m.wrapWidth {
			return m, m.ensureRenderer()
		}
		m.renderer = msg.renderer
		m.refreshPanes()
		return m, nil

	case spinner.TickMsg:
		if m.updates > 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshPanes()
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		if m.focus == paneQuestions {
			m.focus = paneFeedback
		} else {
			m.focus = paneQuestions
		}
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		m.refreshPanes()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.focusedViewport().GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.focusedViewport().GotoBottom()
		return m, nil
	}

	vp := m.focusedViewport()
	var cmd tea.Cmd
	*vp, cmd = vp.Update(msg)
	return m, cmd
}

func (m *Model) focusedViewport() *viewport.Model {
	if m.focus == paneFeedback {
		return &m.feedbackVP
	}
	return &m.questionsVP
}

// applyWindowSize records the terminal size and lays out the panes. It
// returns a command when a markdown renderer for the new width is needed.
func (m *Model) applyWindowSize(width, height int) tea.Cmd {
	if width <= 0 || height <= 0 {
		return nil
	}
	m.width = width
	m.height = height
	m.help.Width = width
	m.layout()
	m.ready = true
	return m.ensureRenderer()
}

func (m *Model) footerHeight() int {
	return 1 + lipgloss.Height(m.help.View(m.keys))
}

func (m *Model) layout() {
	frameW, frameH := m.styles.pane.GetFrameSize()

	outer := (m.width - paneGap) / 2
	if outer < minPaneWidth {
		outer = minPaneWidth
	}
	inner := outer - frameW

	// One line inside each pane is taken by its title.
	vpHeight := m.height - headerHeight - m.footerHeight() - frameH - 1
	if vpHeight < 1 {
		vpHeight = 1
	}

	m.questionsVP.Width = inner
	m.questionsVP.Height = vpHeight
	m.feedbackVP.Width = inner
	m.feedbackVP.Height = vpHeight
	m.wrapWidth = inner
}

func (m *Model) ensureRenderer() tea.Cmd {
	if !m.markdown || m.wrapWidth <= 0 {
		return nil
	}
	if r, ok := m.rendererCache[m.wrapWidth]; ok {
		m.renderer = r
		return nil
	}
	if m.rendererInFlight {
		return nil
	}
	m.rendererInFlight = true
	return createRendererAsync(m.wrapWidth)
}

func createRendererAsync(wrapWidth int) tea.Cmd {
	return func() tea.Msg {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapWidth),
			glamour.WithPreservedNewLines(),
		)
		return rendererReadyMsg{renderer: renderer, width: wrapWidth, err: err}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	sb := acquireBuilder()
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	questions := m.renderPane(paneQuestions, "Questions", len(m.questions), m.questionsVP)
	feedback := m.renderPane(paneFeedback, "Feedback", len(m.feedbacks), m.feedbackVP)
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, questions, spaces(paneGap), feedback))
	sb.WriteString("\n")

	sb.WriteString(m.renderMainFooter())
	return builderString(sb)
}
