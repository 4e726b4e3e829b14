package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Credentials identify the local user to the backend.
type Credentials struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// Complete reports whether both fields are present.
func (c Credentials) Complete() bool {
	return c.UserID != "" && c.Password != ""
}

// BasicAuthHeader returns the Authorization header value, or "" when the
// credentials are incomplete.
func (c Credentials) BasicAuthHeader() string {
	if !c.Complete() {
		return ""
	}
	token := base64.StdEncoding.EncodeToString([]byte(c.UserID + ":" + c.Password))
	return "Basic " + token
}

// CredentialProvider supplies the credentials attached to each request.
type CredentialProvider interface {
	Credentials() (Credentials, error)
}

// StaticProvider always returns the same credentials.
type StaticProvider Credentials

func (p StaticProvider) Credentials() (Credentials, error) {
	return Credentials(p), nil
}

// FileStore persists credentials as JSON. A missing file means "logged out"
// and yields empty credentials rather than an error.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Credentials() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials: %w", err)
	}
	return creds, nil
}

func (s *FileStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the stored credentials.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
