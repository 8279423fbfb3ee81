package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotAuthenticated means no stored session exists. Run login first.
var ErrNotAuthenticated = errors.New("not authenticated, run `flux login`")

const sessionFile = "session.json"

// Session is the locally stored identity: the access token plus enough user
// detail to scope conversations and answer whoami offline.
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
}

// LoadSession reads the stored session from the config directory.
func LoadSession(configDir string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(configDir, sessionFile))
	if os.IsNotExist(err) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if s.AccessToken == "" || s.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	return &s, nil
}

// SaveSession writes the session with owner-only permissions, via a temp file
// so a crash never leaves a truncated session behind.
func SaveSession(configDir string, s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	path := filepath.Join(configDir, sessionFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// ClearSession removes the stored session. Missing is not an error; logout is
// idempotent.
func ClearSession(configDir string) error {
	err := os.Remove(filepath.Join(configDir, sessionFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
