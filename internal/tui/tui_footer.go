package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMainFooter renders the status line (error, latest diagnostic or
// end-of-stream notice, plus the time of the last update) and the key help.
func (m *Model) renderMainFooter() string {
	footerLeft := ""
	switch {
	case m.status == StatusFailed && m.statusErr != nil:
		footerLeft = m.styles.diagnostic.Render(fmt.Sprintf("Error: %v", m.statusErr))
	case m.lastDiag != nil && m.now().Before(m.diagVisibleUntil):
		footerLeft = m.styles.diagnostic.Render(m.lastDiag.Summary())
	case m.status == StatusEnded:
		footerLeft = m.styles.muted.Render("Server closed the connection. Press q to quit.")
	}

	footerRight := ""
	if !m.lastUpdate.IsZero() {
		footerRight = m.styles.muted.Render("updated " + m.lastUpdate.Format("15:04:05"))
	}

	return m.layoutLine(footerLeft, footerRight) + "\n" + m.help.View(m.keys)
}

// layoutLine is a layout helper that places strings at the left and right
// ends of a line, expanding the space between them as needed. The left part
// is truncated when both do not fit.
func (m *Model) layoutLine(left, right string) string {
	width := m.width
	if width <= 0 {
		switch {
		case left == "":
			return right
		case right == "":
			return left
		default:
			return left + " " + right
		}
	}

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 > width {
		if rightWidth+1 >= width {
			right, rightWidth = "", 0
		}
		left = lipgloss.NewStyle().MaxWidth(width - rightWidth - 1).Render(left)
		leftWidth = lipgloss.Width(left)
	}

	space := width - leftWidth - rightWidth
	if space < 1 {
		space = 1
	}
	return left + strings.Repeat(" ", space) + right
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}
