package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := New(Options{Session: "ab12cd34", Server: "ws://localhost:8000/ws/teacher", Theme: theme.Default()})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func view(m *Model) string {
	return ansi.Strip(m.View())
}

func snapshot() SnapshotMsg {
	return SnapshotMsg{Snapshot: feed.Snapshot{
		Questions: []feed.Question{
			{ID: "q1", Student: "Alice", Question: "Why is the sky blue?"},
			{ID: "q2", Student: "Carol", Question: "What about sunsets?", Timestamp: "not-a-time"},
		},
		Feedbacks: []feed.Feedback{
			{Student: "Bob", Feedback: "I'm lost"},
			{Student: "Dan", Feedback: "more coffee"},
			{Student: "Eve", Feedback: "I'm lost"},
		},
	}}
}

func TestViewBeforeSize(t *testing.T) {
	m := New(Options{Theme: theme.Default()})
	if !m.ready {
		assert.Contains(t, m.View(), "Initializing")
	}
}

func TestSnapshotRendersBothPanes(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, view(m), "Connecting")

	m.Update(snapshot())
	out := view(m)

	assert.Contains(t, out, "Questions: 2")
	assert.Contains(t, out, "Feedback: 3")
	assert.Contains(t, out, "Live")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Why is the sky blue?")
	assert.Contains(t, out, "not-a-time")
	assert.Contains(t, out, "I'm lost (2)")
	assert.Contains(t, out, "more coffee (1)")
	assert.Contains(t, out, "session ab12cd34")

	lines := strings.Split(out, "\n")
	assert.LessOrEqual(t, len(lines), 40, "view must fit the terminal height")
}

func TestTabSwitchesFocus(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, paneQuestions, m.focus)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneFeedback, m.focus)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneQuestions, m.focus)
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestHelpToggleShrinksPanes(t *testing.T) {
	m := newTestModel(t)
	before := m.questionsVP.Height

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, m.help.ShowAll)
	assert.Less(t, m.questionsVP.Height, before)
}

func TestDiagnosticShownThenExpires(t *testing.T) {
	m := newTestModel(t)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	_, cmd := m.Update(DiagnosticMsg{Report: diag.Report{Kind: diag.KindMalformed, Err: errors.New("bad json")}})
	assert.NotNil(t, cmd)
	assert.Contains(t, view(m), "[malformed] bad json")

	clock = clock.Add(time.Minute)
	assert.NotContains(t, view(m), "bad json")
}

func TestStatusMessages(t *testing.T) {
	m := newTestModel(t)

	m.Update(StatusMsg{Status: StatusEnded})
	assert.Contains(t, view(m), "Offline")
	assert.Contains(t, view(m), "Server closed the connection")

	m.Update(StatusMsg{Status: StatusFailed, Err: errors.New("read frame: EOF")})
	assert.Contains(t, view(m), "Error: read frame: EOF")
}

func TestThemeMsgRestyles(t *testing.T) {
	m := newTestModel(t)
	custom := theme.Default()
	custom.TitleColor = "#010203"

	m.Update(ThemeMsg{Theme: custom})
	assert.Equal(t, "#010203", m.styles.theme.TitleColor)
}

func TestStudentColorIsStable(t *testing.T) {
	assert.Equal(t, studentColor("Alice"), studentColor("Alice"))
	assert.Contains(t, studentPalette, studentColor("Bob"))
}

func TestGroupFeedback(t *testing.T) {
	groups := groupFeedback([]feed.Feedback{
		{Student: "A", Feedback: "custom"},
		{Student: "B", Feedback: "Please go faster"},
		{Student: "C", Feedback: "I'm on track"},
		{Student: "D", Feedback: "please GO faster"},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, theme.FeedbackOnTrack, groups[0].text)
	assert.Equal(t, theme.FeedbackGoFaster, groups[1].text)
	assert.Equal(t, []string{"B", "D"}, groups[1].students)
	assert.Equal(t, "custom", groups[2].text)
}

func TestLayoutLineTruncates(t *testing.T) {
	m := &Model{width: 10}
	line := m.layoutLine("a very long left part", "right")
	assert.LessOrEqual(t, ansi.StringWidth(line), 10)
	assert.True(t, strings.HasSuffix(line, "right"))
}

func TestRendererClosed(t *testing.T) {
	var sent []tea.Msg
	r := &Renderer{send: func(msg tea.Msg) { sent = append(sent, msg) }, done: make(chan struct{})}

	require.NoError(t, r.Render([]feed.Question{{ID: "q1"}}, nil))
	r.SetStatus(StatusLive, nil)
	r.Diagnostic(diag.Report{Kind: diag.KindFrame})
	r.SetTheme(theme.Default(), errors.New("bad yaml"))
	require.Len(t, sent, 3)
	assert.IsType(t, SnapshotMsg{}, sent[0])

	r.markClosed()
	assert.ErrorIs(t, r.Render(nil, nil), ErrRendererClosed)
	r.SetStatus(StatusEnded, nil)
	assert.Len(t, sent, 3)
}

func TestPlainRenderer(t *testing.T) {
	var out bytes.Buffer
	p := NewPlainRenderer(&out)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	q1 := feed.Question{ID: "q1", Student: "Alice", Question: "Why\nnow?"}
	f1 := feed.Feedback{Student: "Bob", Feedback: "Great!"}
	require.NoError(t, p.Render([]feed.Question{q1}, []feed.Feedback{f1}))

	q2 := feed.Question{ID: "q2", Student: "Carol", Question: "Second"}
	require.NoError(t, p.Render([]feed.Question{q1, q2}, []feed.Feedback{f1}))

	assert.Equal(t,
		"[09:30:00] questions=1 feedback=1\n"+
			"  Q q1 Alice: Why now?\n"+
			"  F Bob: Great!\n"+
			"[09:30:00] questions=2 feedback=1\n"+
			"  Q q2 Carol: Second\n",
		out.String())
}
