package transport

import "fmt"

// FrameKind classifies a frame produced by Conn.Next.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FrameControl
	FrameError
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameControl:
		return "control"
	case FrameError:
		return "error"
	default:
		return "unknown"
	}
}

// ControlKind names the control frame carried by a FrameControl.
type ControlKind string

const (
	ControlPing  ControlKind = "ping"
	ControlPong  ControlKind = "pong"
	ControlClose ControlKind = "close"
)

// Frame is one unit read from the connection.
type Frame struct {
	Kind    FrameKind
	Text    string
	Size    int
	Control ControlKind
	Err     error
}

func (f Frame) String() string {
	switch f.Kind {
	case FrameText, FrameBinary:
		return fmt.Sprintf("%s(%d bytes)", f.Kind, f.Size)
	case FrameControl:
		return fmt.Sprintf("control(%s)", f.Control)
	case FrameError:
		return fmt.Sprintf("error(%v)", f.Err)
	default:
		return f.Kind.String()
	}
}

// TextFrame builds a text frame.
func TextFrame(text string) Frame {
	return Frame{Kind: FrameText, Text: text, Size: len(text)}
}

// ErrorFrame builds an error frame wrapping err in a *FrameError.
func ErrorFrame(err error) Frame {
	return Frame{Kind: FrameError, Err: &FrameError{Err: err}}
}
