package feed

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage matches every MalformedMessageError with errors.Is.
var ErrMalformedMessage = errors.New("malformed message")

// MalformedMessageError is returned when a payload is not JSON or does not
// have the Envelope shape.
type MalformedMessageError struct {
	Err error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedMessage, e.Err)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformedMessage
}

// Envelope is one decoded wire message. It is transient: Normalize drains
// its data into a State.
type Envelope struct {
	Kind     EventKind     `json:"type"`
	Resource *ResourceKind `json:"resource"`
	ID       *string       `json:"id"`
	Data     [][]Item      `json:"data"`
}

// UnmarshalJSON looks members up by their exact name. encoding/json would
// fold the case of struct keys, so "TYPE" would pass for "type".
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("envelope is null")
	}

	var env Envelope
	var kind *EventKind
	if err := member(fields, "type", &kind); err != nil {
		return err
	}
	if kind == nil {
		return errors.New(`missing required member "type"`)
	}
	env.Kind = *kind

	if err := member(fields, "resource", &env.Resource); err != nil {
		return err
	}
	if err := member(fields, "id", &env.ID); err != nil {
		return err
	}

	var data *[][]Item
	if err := member(fields, "data", &data); err != nil {
		return err
	}
	if data == nil {
		return errors.New(`missing required member "data"`)
	}
	env.Data = *data

	*e = env
	return nil
}

// member decodes fields[name] into dst. A missing member leaves dst alone.
func member[T any](fields map[string]json.RawMessage, name string, dst *T) error {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("member %q: %w", name, err)
	}
	return nil
}

// ItemCount returns the number of data items across all groups.
func (e *Envelope) ItemCount() int {
	n := 0
	for _, group := range e.Data {
		n += len(group)
	}
	return n
}

// Decode parses raw into an Envelope. Every failure is a
// *MalformedMessageError.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &MalformedMessageError{Err: err}
	}
	return &env, nil
}

// DecodeString is Decode for text frames.
func DecodeString(raw string) (*Envelope, error) {
	return Decode([]byte(raw))
}
