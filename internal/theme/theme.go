// Package theme holds the colour palette of the terminal UI. A palette is
// read from a YAML file and merged over the defaults, so a file only needs
// the keys it changes.
package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the theme file looked up in the config directory.
const FileName = "theme.yaml"

// Canonical feedback texts the server sends.
const (
	FeedbackOnTrack  = "I'm on track"
	FeedbackSlowDown = "Please slow down"
	FeedbackLost     = "I'm lost"
	FeedbackGoFaster = "Please go faster"
)

// Theme contains all customizable colors. Values are anything lipgloss
// accepts as a colour.
type Theme struct {
	BorderColor       string `yaml:"border_color"`
	ActiveBorderColor string `yaml:"active_border_color"`

	TitleColor     string `yaml:"title_color"`
	HelpTextColor  string `yaml:"help_text_color"`
	TimestampColor string `yaml:"timestamp_color"`

	ConnectedColor    string `yaml:"connected_color"`
	DisconnectedColor string `yaml:"disconnected_color"`

	OnTrackColor  string `yaml:"on_track_color"`
	SlowDownColor string `yaml:"slow_down_color"`
	LostColor     string `yaml:"lost_color"`
	GoFasterColor string `yaml:"go_faster_color"`
}

// Default returns the built-in palette.
func Default() Theme {
	return Theme{
		BorderColor:       "#666",
		ActiveBorderColor: "#FFE66D",

		TitleColor:     "#FF6B6B",
		HelpTextColor:  "#666",
		TimestampColor: "#666",

		ConnectedColor:    "#4ECDC4",
		DisconnectedColor: "#FF6B6B",

		OnTrackColor:  "#4ECDC4",
		SlowDownColor: "#FFE66D",
		LostColor:     "#FF6B6B",
		GoFasterColor: "#95E1D3",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/bbqterm/theme.yaml, or an empty
// string when there is no config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bbqterm", FileName)
}

// Load reads the theme at path merged over Default. A missing file is not
// an error. On a parse error the defaults are returned along with the error.
func Load(path string) (Theme, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return t, fmt.Errorf("read theme: %w", err)
	}

	var custom Theme
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return t, fmt.Errorf("parse theme %s: %w", path, err)
	}
	return t.Merge(custom), nil
}

// Merge returns t with every non-empty colour of o applied.
func (t Theme) Merge(o Theme) Theme {
	pick := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	pick(&t.BorderColor, o.BorderColor)
	pick(&t.ActiveBorderColor, o.ActiveBorderColor)
	pick(&t.TitleColor, o.TitleColor)
	pick(&t.HelpTextColor, o.HelpTextColor)
	pick(&t.TimestampColor, o.TimestampColor)
	pick(&t.ConnectedColor, o.ConnectedColor)
	pick(&t.DisconnectedColor, o.DisconnectedColor)
	pick(&t.OnTrackColor, o.OnTrackColor)
	pick(&t.SlowDownColor, o.SlowDownColor)
	pick(&t.LostColor, o.LostColor)
	pick(&t.GoFasterColor, o.GoFasterColor)
	return t
}

// FeedbackColor returns the colour for a canonical feedback text, matched
// case-insensitively, and false for anything else.
func (t Theme) FeedbackColor(feedback string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(feedback)) {
	case strings.ToLower(FeedbackOnTrack):
		return t.OnTrackColor, true
	case strings.ToLower(FeedbackSlowDown):
		return t.SlowDownColor, true
	case strings.ToLower(FeedbackLost):
		return t.LostColor, true
	case strings.ToLower(FeedbackGoFaster):
		return t.GoFasterColor, true
	default:
		return "", false
	}
}
