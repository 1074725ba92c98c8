package feed

// Delta lists what a single Normalize call appended, in append order.
type Delta struct {
	Questions []Question
	Feedbacks []Feedback
}

// Len returns the number of appended items.
func (d Delta) Len() int {
	return len(d.Questions) + len(d.Feedbacks)
}

// Snapshot is a copy of the state that is safe to hand to another goroutine.
type Snapshot struct {
	Questions []Question
	Feedbacks []Feedback
}

// State accumulates every question and feedback seen so far. It only ever
// grows. State is not safe for concurrent use; it has a single owner.
type State struct {
	questions []Question
	feedbacks []Feedback
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Normalize drains env's groups into the state, preserving group order and
// in-group order. The same envelope normalized twice appends twice.
func (s *State) Normalize(env *Envelope) Delta {
	if env == nil {
		return Delta{}
	}

	qStart, fStart := len(s.questions), len(s.feedbacks)
	for _, group := range env.Data {
		for _, item := range group {
			switch item.Kind() {
			case ItemQuestion:
				s.questions = append(s.questions, item.question)
			case ItemFeedback:
				s.feedbacks = append(s.feedbacks, item.feedback)
			}
		}
	}
	env.Data = nil

	return Delta{
		Questions: s.questions[qStart:len(s.questions):len(s.questions)],
		Feedbacks: s.feedbacks[fStart:len(s.feedbacks):len(s.feedbacks)],
	}
}

// Questions returns a copy of all questions in arrival order.
func (s *State) Questions() []Question {
	return append([]Question(nil), s.questions...)
}

// Feedbacks returns a copy of all feedback in arrival order.
func (s *State) Feedbacks() []Feedback {
	return append([]Feedback(nil), s.feedbacks...)
}

// Counts returns the number of questions and feedback entries without
// copying either list.
func (s *State) Counts() (questions, feedbacks int) {
	return len(s.questions), len(s.feedbacks)
}

// Len returns the total number of items.
func (s *State) Len() int {
	return len(s.questions) + len(s.feedbacks)
}

// Snapshot copies the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Questions: s.Questions(),
		Feedbacks: s.Feedbacks(),
	}
}
