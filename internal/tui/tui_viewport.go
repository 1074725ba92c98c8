package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/theme"
	"github.com/muesli/reflow/wordwrap"
)

// feedbackIcons follow the order the feedback pane lists the canonical
// feedback texts in.
var feedbackIcons = []struct {
	text string
	icon string
}{
	{theme.FeedbackOnTrack, "▶"},
	{theme.FeedbackSlowDown, "⏸"},
	{theme.FeedbackLost, "⏹"},
	{theme.FeedbackGoFaster, "⏩"},
}

type feedbackGroup struct {
	text     string
	icon     string
	students []string
}

// groupFeedback buckets feedback by text. Canonical texts come first in a
// fixed order, anything else follows in order of first appearance.
func groupFeedback(feedbacks []feed.Feedback) []feedbackGroup {
	index := make(map[string]int)
	var groups []feedbackGroup
	for _, fi := range feedbackIcons {
		index[strings.ToLower(fi.text)] = len(groups)
		groups = append(groups, feedbackGroup{text: fi.text, icon: fi.icon})
	}

	for _, f := range feedbacks {
		k := strings.ToLower(strings.TrimSpace(f.Feedback))
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, feedbackGroup{text: f.Feedback, icon: "•"})
		}
		groups[i].students = append(groups[i].students, f.Student)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.students) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// refreshPanes re-renders both panes. A pane that was scrolled to the
// bottom follows new entries.
func (m *Model) refreshPanes() {
	setContent(&m.questionsVP, m.renderQuestions(m.questionsVP.Width))
	setContent(&m.feedbackVP, m.renderFeedback(m.feedbackVP.Width))
}

func setContent(vp *viewport.Model, content string) {
	follow := vp.AtBottom()
	vp.SetContent(content)
	if follow {
		vp.GotoBottom()
	}
}

func (m *Model) renderPane(p pane, title string, count int, vp viewport.Model) string {
	style := m.styles.pane
	if m.focus == p {
		style = m.styles.activePane
	}
	heading := m.styles.paneTitle.Render(fmt.Sprintf("%s (%d)", title, count))
	return style.Render(heading + "\n" + vp.View())
}

func (m *Model) waiting() bool {
	return m.updates == 0 && (m.status == StatusConnecting || m.status == StatusLive)
}

func (m *Model) renderQuestions(width int) string {
	if len(m.questions) == 0 {
		if m.waiting() {
			return m.spinner.View() + " " + m.styles.muted.Render("Waiting for questions...")
		}
		return m.styles.muted.Render("No questions yet...")
	}

	sb := acquireBuilder()
	for i, q := range m.questions {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.styles.muted.Render(fmt.Sprintf("#%d", i+1)))
		sb.WriteString(" ")
		sb.WriteString(m.styles.student.Foreground(studentColor(q.Student)).Render(q.Student))
		if ts := formatTimestamp(q.Timestamp); ts != "" {
			sb.WriteString(" ")
			sb.WriteString(m.styles.timestamp.Render(ts))
		}
		sb.WriteString("\n")
		sb.WriteString(m.renderQuestionText(q.Question, width))
	}
	return builderString(sb)
}

func (m *Model) renderQuestionText(text string, width int) string {
	if m.markdown && m.renderer != nil {
		if rendered, err := m.renderer.Render(text); err == nil {
			return strings.Trim(rendered, "\n")
		}
	}
	return indent(wordwrap.String(text, max(width-2, 1)), "  ")
}

func (m *Model) renderFeedback(width int) string {
	if len(m.feedbacks) == 0 {
		return m.styles.muted.Render("No feedback yet...\nWaiting for students to respond")
	}

	sb := acquireBuilder()
	for i, g := range groupFeedback(m.feedbacks) {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		heading := wordwrap.String(fmt.Sprintf("%s %s (%d)", g.icon, g.text, len(g.students)), max(width, 1))
		sb.WriteString(m.styles.feedbackStyle(g.text).Render(heading))
		for _, student := range g.students {
			sb.WriteString("\n  └─ ")
			sb.WriteString(m.styles.student.Foreground(studentColor(student)).Render(student))
		}
	}
	return builderString(sb)
}

// formatTimestamp shows RFC 3339 timestamps as local wall-clock time and
// anything else as sent.
func formatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04:05")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
