// Package feed holds the wire schema of the classroom feed and the
// append-only state folded from it.
//
// Each incoming text frame is one Envelope:
//
//	{"type": "new", "resource": "question", "id": null,
//	 "data": [[{"id": "q1", "student": "Alice", "question": "Why?"}],
//	          [{"student": "Bob", "feedback": "Great!"}]]}
//
// Data items carry no discriminant. An item with an "id" member is tried as a
// Question first; anything else (or an id-carrying item that is not a complete
// Question) is tried as Feedback. Decoding is all-or-nothing: one bad item
// rejects the whole Envelope with a MalformedMessageError.
package feed
