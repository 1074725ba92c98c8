package transport

import (
	"fmt"
	"net/url"
)

// ConnectionError is returned when the WebSocket handshake fails.
type ConnectionError struct {
	// URL is the endpoint with its query string removed.
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to connect to %s: %v (HTTP %s)", e.URL, e.Err, e.Status)
	}
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// FrameError is a mid-stream read failure. It is reported, never fatal.
type FrameError struct {
	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("read frame: %v", e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// RedactURL drops query and credentials so tokens never reach logs.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	u.Fragment = ""
	return u.String()
}
