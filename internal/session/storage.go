package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// MemoryCredentialStore keeps the token in memory. Used by tests and by
// one-shot runs that should not persist anything.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func (s *MemoryCredentialStore) LoadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryCredentialStore) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryCredentialStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// FileCredentialStore persists the token as a small JSON file, chmod 0600.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

var _ CredentialStore = (*FileCredentialStore)(nil)

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

type storedCredentials struct {
	Token string `json:"token"`
}

func (s *FileCredentialStore) LoadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var sc storedCredentials
	if err := json.Unmarshal(b, &sc); err != nil {
		return "", err
	}
	return sc.Token, nil
}

func (s *FileCredentialStore) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(storedCredentials{Token: token})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileCredentialStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
