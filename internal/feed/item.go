package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Question is a question a student submitted. The server assigns ID and
// Timestamp.
type Question struct {
	ID        string `json:"id"`
	Student   string `json:"student"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Feedback is a student's reaction to the pace of the lecture. Unlike
// Question it has no identifier on the wire.
type Feedback struct {
	Student  string `json:"student"`
	Feedback string `json:"feedback"`
}

// ItemKind tells which variant an Item holds.
type ItemKind int

const (
	ItemUnknown ItemKind = iota
	ItemQuestion
	ItemFeedback
)

func (k ItemKind) String() string {
	switch k {
	case ItemQuestion:
		return "question"
	case ItemFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// Item is one data item of an Envelope: either a Question or a Feedback.
type Item struct {
	kind     ItemKind
	question Question
	feedback Feedback
}

// QuestionItem wraps q.
func QuestionItem(q Question) Item {
	return Item{kind: ItemQuestion, question: q}
}

// FeedbackItem wraps f.
func FeedbackItem(f Feedback) Item {
	return Item{kind: ItemFeedback, feedback: f}
}

// Kind returns the variant held by the item.
func (i Item) Kind() ItemKind {
	return i.kind
}

// Question returns the question and true if the item is a question.
func (i Item) Question() (Question, bool) {
	return i.question, i.kind == ItemQuestion
}

// Feedback returns the feedback and true if the item is feedback.
func (i Item) Feedback() (Feedback, bool) {
	return i.feedback, i.kind == ItemFeedback
}

// ItemError describes a data item that matches neither variant.
type ItemError struct {
	Fields []string
	Reason string
}

func (e *ItemError) Error() string {
	if len(e.Fields) == 0 {
		return "data item: " + e.Reason
	}
	return fmt.Sprintf("data item with fields %v: %s", e.Fields, e.Reason)
}

func (i Item) MarshalJSON() ([]byte, error) {
	switch i.kind {
	case ItemQuestion:
		return json.Marshal(i.question)
	case ItemFeedback:
		return json.Marshal(i.feedback)
	default:
		return nil, &ItemError{Reason: "cannot encode an empty item"}
	}
}

// UnmarshalJSON applies the discrimination rule: an object with an "id"
// member is tried as a Question, then everything is tried as Feedback.
func (i *Item) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return &ItemError{Reason: "not an object"}
	}
	if fields == nil {
		return &ItemError{Reason: "item is null"}
	}

	if _, hasID := fields["id"]; hasID {
		if q, ok := questionFromFields(fields); ok {
			*i = QuestionItem(q)
			return nil
		}
	}
	if f, ok := feedbackFromFields(fields); ok {
		*i = FeedbackItem(f)
		return nil
	}

	return &ItemError{
		Fields: fieldNames(fields),
		Reason: "matches neither question {id, student, question} nor feedback {student, feedback}",
	}
}

func questionFromFields(fields map[string]json.RawMessage) (Question, bool) {
	var q Question
	var ok bool
	if q.ID, ok = requiredString(fields, "id"); !ok {
		return Question{}, false
	}
	if q.Student, ok = requiredString(fields, "student"); !ok {
		return Question{}, false
	}
	if q.Question, ok = requiredString(fields, "question"); !ok {
		return Question{}, false
	}
	// Timestamp is informational; a malformed one is dropped, not fatal.
	q.Timestamp, _ = requiredString(fields, "timestamp")
	return q, true
}

func feedbackFromFields(fields map[string]json.RawMessage) (Feedback, bool) {
	var f Feedback
	var ok bool
	if f.Student, ok = requiredString(fields, "student"); !ok {
		return Feedback{}, false
	}
	if f.Feedback, ok = requiredString(fields, "feedback"); !ok {
		return Feedback{}, false
	}
	return f, true
}

var jsonNull = []byte("null")

// requiredString reports whether key is present and holds a JSON string.
func requiredString(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func fieldNames(fields map[string]json.RawMessage) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
