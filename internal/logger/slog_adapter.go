package logger

import (
	"context"
	"log"
	"log/slog"
	"strings"
)

// NewSlogHandler returns a slog.Handler writing through l. Attributes are
// appended to the message as key=value pairs, groups become dotted key
// prefixes. It returns nil for a nil logger.
func NewSlogHandler(l *Logger) slog.Handler {
	if l == nil {
		return nil
	}
	return &slogHandler{log: l}
}

// NewStdLogger returns a *log.Logger whose output is forwarded to l at the
// given level, for APIs such as http.Server.ErrorLog. A nil l uses the
// global logger.
func NewStdLogger(l *Logger, level slog.Level) *log.Logger {
	if l == nil {
		l = Global()
	}
	return slog.NewLogLogger(NewSlogHandler(l), level)
}

type slogHandler struct {
	log *Logger
	// prefix is the dotted group path, with a trailing dot when non-empty.
	prefix string
	// attrs holds the already formatted WithAttrs pairs.
	attrs string
}

func toLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.log.Enabled(toLevel(level))
}

func (h *slogHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.prefix, a)
		return true
	})

	msg := strings.TrimPrefix(sb.String(), " ")
	h.log.log(toLevel(record.Level), "%s", msg)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&sb, h.prefix, a)
	}
	return &slogHandler{log: h.log, prefix: h.prefix, attrs: sb.String()}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &slogHandler{log: h.log, prefix: h.prefix + name + ".", attrs: h.attrs}
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		nested := prefix
		if a.Key != "" {
			nested += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			writeAttr(sb, nested, g)
		}
		return
	}

	key := a.Key
	if key == "" {
		key = "attr"
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(a.Value.String())
}
