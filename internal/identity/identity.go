// Package identity persists the client's registered username and auth token in a small
// YAML key-value file.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/simplechat/internal/composer"
)

const (
	// KeyRegistered holds the username of the registered user.
	KeyRegistered = "registered"
	// KeyToken holds the JWT issued by the server.
	KeyToken = "token"
)

// ErrNotRegistered is returned when no username has been stored yet.
var ErrNotRegistered = errors.New("identity: no registered user, run `simplechat register` first")

// File is a key-value store backed by a YAML document.
type File struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// Open loads the file at path. A missing file yields an empty store.
func Open(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("parse identity %s: %w", path, err)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and writes the file.
func (f *File) Set(key, value string) error {
	return f.SetMany(map[string]string{key: value})
}

// SetMany stores all pairs and writes the file once.
func (f *File) SetMany(pairs map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, v := range pairs {
		f.values[k] = v
	}
	return f.flush()
}

// Delete removes key and writes the file.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, key)
	return f.flush()
}

// Registered returns the stored sender identity.
func (f *File) Registered() (composer.Identity, error) {
	name, ok := f.Get(KeyRegistered)
	if !ok || strings.TrimSpace(name) == "" {
		return composer.Identity{}, ErrNotRegistered
	}
	return composer.Identity{Username: name}, nil
}

// Token returns the stored auth token, or "" when there is none.
func (f *File) Token() string {
	tok, _ := f.Get(KeyToken)
	return tok
}

// flush writes through a temp file so a crash never leaves a truncated document.
func (f *File) flush() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".identity-*")
	if err != nil {
		return fmt.Errorf("create temp identity: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write identity: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close identity: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod identity: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace identity: %w", err)
	}
	return nil
}
