// Package securemem keeps secrets such as the server access token in
// memguard-protected memory so they are not left lying around in the heap.
package securemem

import (
	"crypto/subtle"

	"github.com/awnumar/memguard"
)

// String is a secret string stored in a locked, guarded buffer.
type String struct {
	buf     *memguard.LockedBuffer
	invalid bool
}

// NewString moves plaintext into guarded memory.
func NewString(plaintext string) *String {
	return NewStringFromBytes([]byte(plaintext))
}

// NewStringFromBytes moves data into guarded memory. memguard wipes data.
func NewStringFromBytes(data []byte) *String {
	if len(data) == 0 {
		return &String{}
	}
	return &String{
		buf: memguard.NewBufferFromBytes(data),
	}
}

func (s *String) usable() bool {
	return s != nil && !s.invalid && s.buf != nil
}

// IsEmpty returns true if the string is empty or destroyed.
func (s *String) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the length of the secret.
func (s *String) Len() int {
	if !s.usable() {
		return 0
	}
	return len(s.buf.Bytes())
}

// Equal compares the secret with plaintext in constant time.
func (s *String) Equal(other string) bool {
	if !s.usable() {
		return other == ""
	}
	return subtle.ConstantTimeCompare(s.buf.Bytes(), []byte(other)) == 1
}

// WithValue calls fn with a plaintext copy of the secret. fn must not retain it.
func (s *String) WithValue(fn func(string)) {
	if !s.usable() {
		fn("")
		return
	}
	fn(string(s.buf.Bytes()))
}

// String never reveals the secret; it keeps tokens out of logs and %v output.
func (s *String) String() string {
	if s.IsEmpty() {
		return "<empty>"
	}
	return "<redacted>"
}

// Destroy wipes the secret. The value must not be used afterwards.
func (s *String) Destroy() {
	if s == nil || s.invalid {
		return
	}
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	s.invalid = true
}

// Purge wipes every guarded buffer in the process. Call it on the way out.
func Purge() {
	memguard.Purge()
}

// Wipe overwrites b with zeroes. Use it on plaintext scratch buffers such as
// a credential file read from disk.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}
