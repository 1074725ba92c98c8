// Package auth loads the teacher credential from its token file and builds
// the authenticated feed URL from it.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/codefionn/bbqterm/internal/securemem"
)

// DefaultPath is where the credential file is looked up when nothing else is
// configured.
const DefaultPath = "./firebase-token.json"

// TeacherPath is the feed endpoint appended to the server base URL.
const TeacherPath = "/ws/teacher"

// ErrNoToken is returned by TeacherURL once the credential has been destroyed.
var ErrNoToken = errors.New("credential has no token")

// AuthLoadError is returned when the credential file cannot be used. It is
// fatal: nothing is dialled without a credential.
type AuthLoadError struct {
	Path string
	Err  error
}

func (e *AuthLoadError) Error() string {
	return fmt.Sprintf("failed to load credential %s: %v", e.Path, e.Err)
}

func (e *AuthLoadError) Unwrap() error {
	return e.Err
}

// fileFormat is the on-disk shape. Other members are ignored.
type fileFormat struct {
	FirebaseToken *string `json:"firebase_token"`
	UserID        *string `json:"user_id"`
}

// Credential is the token and user identifier loaded once at startup. It is
// never mutated; Destroy only wipes the token.
type Credential struct {
	UserID string
	token  *securemem.String
}

// New builds a credential from values already in memory.
func New(token, userID string) *Credential {
	return &Credential{UserID: userID, token: securemem.NewString(token)}
}

// Load reads the credential file at path.
func Load(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AuthLoadError{Path: path, Err: err}
	}
	defer securemem.Wipe(data)

	return parse(path, data)
}

func parse(path string, data []byte) (*Credential, error) {
	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &AuthLoadError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	var missing []string
	if raw.FirebaseToken == nil || *raw.FirebaseToken == "" {
		missing = append(missing, "firebase_token")
	}
	if raw.UserID == nil {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return nil, &AuthLoadError{Path: path, Err: fmt.Errorf("missing %s", strings.Join(missing, ", "))}
	}

	return New(*raw.FirebaseToken, *raw.UserID), nil
}

// TeacherURL returns base joined with the teacher endpoint, carrying the
// escaped token as the "token" query parameter.
func (c *Credential) TeacherURL(base string) (string, error) {
	if c == nil || c.token.IsEmpty() {
		return "", ErrNoToken
	}

	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing scheme or host", base)
	}

	u.Path = strings.TrimRight(u.Path, "/") + TeacherPath
	u.RawPath = ""
	u.Fragment = ""

	q := u.Query()
	c.token.WithValue(func(tok string) {
		q.Set("token", tok)
	})
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// String keeps the token out of logs.
func (c *Credential) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("credential(user=%s, token=%s)", c.UserID, c.token)
}

// Destroy wipes the token.
func (c *Credential) Destroy() {
	if c == nil {
		return
	}
	c.token.Destroy()
}
