// Package credentials persists the auth token and user identity on disk.
package credentials

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// User is the server-reported identity stored alongside the tokens.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Credential holds the persisted auth state. The refresh token is stored
// but the client does not use it for renewal.
type Credential struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// Authenticated reports whether an access token is present. Presence of the
// token is the sole authorization predicate used by the client.
func (c Credential) Authenticated() bool {
	return c.AccessToken != ""
}

// Store reads and writes a Credential at a fixed file path. It performs no
// validation and no network I/O; callers re-read on every access rather than
// caching, since the store can be cleared between calls.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored credential, or a zero Credential when the file is
// missing or unreadable.
func (s *Store) Load() Credential {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credential{}
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}
	}
	return cred
}

// Save writes the credential to disk, replacing any previous state. The file
// is owner-readable only.
func (s *Store) Save(cred Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes all credential state at once. Clearing an already-empty
// store is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
