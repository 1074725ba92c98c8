package tui

import (
	"github.com/charmbracelet/glamour"
	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/theme"
)

// ConnStatus is the connection state shown in the header.
type ConnStatus int

const (
	StatusConnecting ConnStatus = iota
	StatusLive
	StatusEnded
	StatusFailed
)

func (s ConnStatus) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusLive:
		return "Live"
	case StatusEnded:
		return "Offline"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SnapshotMsg carries the full accumulated state after an update.
type SnapshotMsg struct {
	Snapshot feed.Snapshot
}

// StatusMsg changes the connection status. Err is shown for StatusFailed.
type StatusMsg struct {
	Status ConnStatus
	Err    error
}

// DiagnosticMsg shows a report in the footer for a while.
type DiagnosticMsg struct {
	Report diag.Report
}

// ThemeMsg replaces the colour theme.
type ThemeMsg struct {
	Theme theme.Theme
}

// rendererReadyMsg is sent when the markdown renderer for a wrap width has
// been built.
type rendererReadyMsg struct {
	renderer *glamour.TermRenderer
	width    int
	err      error
}
