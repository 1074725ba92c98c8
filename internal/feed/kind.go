package feed

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventKind is the "type" member of an Envelope.
type EventKind string

const (
	EventInit   EventKind = "init"
	EventDelete EventKind = "delete"
	EventNew    EventKind = "new"
	EventUpdate EventKind = "update"
)

// ParseEventKind accepts only the four lowercase literals the server sends.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventInit, EventDelete, EventNew, EventUpdate:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// ActedUpon reports whether the client applies events of this kind as
// written. Delete and update are recognized but not acted upon: their data is
// appended like any other event and nothing is removed or replaced.
func (k EventKind) ActedUpon() bool {
	return k == EventInit || k == EventNew
}

func (k *EventKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("event kind must be a string: %w", err)
	}
	parsed, err := ParseEventKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ResourceKind is the optional "resource" member of an Envelope.
type ResourceKind string

const (
	ResourceFeedback ResourceKind = "feedback"
	ResourceQuestion ResourceKind = "question"
)

// ParseResourceKind is case-insensitive; older servers capitalised the tag.
func ParseResourceKind(s string) (ResourceKind, error) {
	switch k := ResourceKind(strings.ToLower(s)); k {
	case ResourceFeedback, ResourceQuestion:
		return k, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
}

func (k *ResourceKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("resource kind must be a string: %w", err)
	}
	parsed, err := ParseResourceKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
