package auth

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "firebase-token.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `{"firebase_token":"tok-123","user_id":"teacher-1","extra":true}`)

	cred, err := Load(path)
	require.NoError(t, err)
	defer cred.Destroy()

	assert.Equal(t, "teacher-1", cred.UserID)
	assert.True(t, cred.token.Equal("tok-123"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", `firebase_token=abc`, "invalid JSON"},
		{"missing token", `{"user_id":"u"}`, "missing firebase_token"},
		{"empty token", `{"firebase_token":"","user_id":"u"}`, "missing firebase_token"},
		{"missing user", `{"firebase_token":"t"}`, "missing user_id"},
		{"missing both", `{}`, "missing firebase_token, user_id"},
		{"wrong type", `{"firebase_token":42,"user_id":"u"}`, "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			cred, err := Load(path)
			require.Error(t, err)
			assert.Nil(t, cred)

			var authErr *AuthLoadError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, path, authErr.Path)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	var authErr *AuthLoadError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestTeacherURL(t *testing.T) {
	cred := New("a b&c=d", "u")
	defer cred.Destroy()

	tests := []struct {
		base string
		want string
	}{
		{"ws://localhost:8000", "ws://localhost:8000/ws/teacher?token=a+b%26c%3Dd"},
		{"ws://localhost:8000/", "ws://localhost:8000/ws/teacher?token=a+b%26c%3Dd"},
		{"wss://bbq.example.com/api", "wss://bbq.example.com/api/ws/teacher?token=a+b%26c%3Dd"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := cred.TeacherURL(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			u, err := url.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, "a b&c=d", u.Query().Get("token"))
		})
	}
}

func TestTeacherURLInvalidBase(t *testing.T) {
	cred := New("tok", "u")
	defer cred.Destroy()

	_, err := cred.TeacherURL("localhost")
	assert.Error(t, err)
}

func TestDestroy(t *testing.T) {
	cred := New("tok", "u")
	cred.Destroy()

	_, err := cred.TeacherURL("ws://localhost:8000")
	assert.ErrorIs(t, err, ErrNoToken)

	// A second Destroy is harmless.
	cred.Destroy()
}

func TestStringRedactsToken(t *testing.T) {
	cred := New("super-secret", "teacher-1")
	defer cred.Destroy()

	assert.NotContains(t, cred.String(), "super-secret")
	assert.Contains(t, cred.String(), "teacher-1")
}
