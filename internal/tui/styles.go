package tui

import (
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/codefionn/bbqterm/internal/theme"
)

// studentPalette holds the accent colours student names are spread over.
var studentPalette = []lipgloss.Color{
	"39", "45", "50", "78", "114", "141", "147", "170", "176", "179", "209", "215", "221",
}

// studentColor maps a name to a stable accent colour.
func studentColor(name string) lipgloss.Color {
	return studentPalette[xxhash.Sum64String(name)%uint64(len(studentPalette))]
}

// styles are derived from a theme and rebuilt whenever the theme changes.
type styles struct {
	theme theme.Theme

	title        lipgloss.Style
	connected    lipgloss.Style
	disconnected lipgloss.Style
	counter      lipgloss.Style
	separator    lipgloss.Style
	pane         lipgloss.Style
	activePane   lipgloss.Style
	paneTitle    lipgloss.Style
	muted        lipgloss.Style
	timestamp    lipgloss.Style
	diagnostic   lipgloss.Style
	student      lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.BorderColor)).
		Padding(0, 1)

	return styles{
		theme: t,

		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.TitleColor)),
		connected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.ConnectedColor)),
		disconnected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.DisconnectedColor)),
		counter: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TitleColor)),
		separator: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.BorderColor)),
		pane: pane,
		activePane: pane.
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color(t.ActiveBorderColor)),
		paneTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.TitleColor)),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.HelpTextColor)).
			Italic(true),
		timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TimestampColor)),
		diagnostic: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.DisconnectedColor)),
		student: lipgloss.NewStyle().
			Bold(true),
	}
}

// feedbackStyle colours canonical feedback texts and leaves anything else in
// the default foreground.
func (s styles) feedbackStyle(text string) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	if c, ok := s.theme.FeedbackColor(text); ok {
		st = st.Foreground(lipgloss.Color(c))
	}
	return st
}
