package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session holds the bearer token of a logged-in user. The zero value is a
// logged-out session.
type Session struct {
	mu        sync.RWMutex
	token     string
	user      *User
	expiresAt time.Time
}

type sessionFile struct {
	Token     string    `json:"token"`
	User      *User     `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login stores a token valid for expiresIn seconds. Zero means no expiry.
func (s *Session) Login(token string, user User, expiresIn int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = &user
	s.expiresAt = time.Time{}
	if expiresIn > 0 {
		s.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
}

// Logout forgets the token and user.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.expiresAt = time.Time{}
}

// Token returns the bearer token, or "" once it has expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired() {
		return ""
	}
	return s.token
}

// User returns the logged-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether the session holds an unexpired token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) expired() bool {
	return !s.expiresAt.IsZero() && !time.Now().Before(s.expiresAt)
}

// Save writes the session to path with owner-only permissions.
func (s *Session) Save(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(sessionFile{Token: s.token, User: s.user, ExpiresAt: s.expiresAt}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// LoadSession reads a session saved by Save. A missing file yields a
// logged-out session.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", path, err)
	}
	return &Session{token: f.Token, user: f.User, expiresAt: f.ExpiresAt}, nil
}
