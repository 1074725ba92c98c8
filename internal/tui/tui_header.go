package tui

import (
	"fmt"
	"strings"
)

// renderHeader renders the title, connection status, counters and session.
func (m *Model) renderHeader() string {
	sb := acquireBuilder()

	left := m.styles.title.Render("🍖 bbqterm") + "  " +
		m.renderStatus() + "  " +
		m.styles.counter.Render(fmt.Sprintf("│ Questions: %d  │ Feedback: %d", len(m.questions), len(m.feedbacks)))

	var right []string
	if m.server != "" {
		right = append(right, m.server)
	}
	if m.session != "" {
		right = append(right, "session "+m.session)
	}

	sb.WriteString(m.layoutLine(left, m.styles.muted.Render(strings.Join(right, " · "))))
	sb.WriteString("\n")
	sb.WriteString(m.styles.separator.Render(strings.Repeat("─", max(m.width, 1))))

	return builderString(sb)
}

func (m *Model) renderStatus() string {
	switch m.status {
	case StatusLive:
		return m.styles.connected.Render("● " + m.status.String())
	case StatusConnecting:
		return m.styles.muted.Render(m.spinner.View() + " " + m.status.String())
	default:
		return m.styles.disconnected.Render("● " + m.status.String())
	}
}
