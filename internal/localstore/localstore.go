// Package localstore persists the session identity between runs in a small
// YAML file, the desktop analogue of browser local storage.
package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

const (
	FileName = "session.yaml"

	KeyUserName = "garden_user_name"
	KeyUserID   = "garden_user_id"
)

// Store reads and writes the identity file in one directory.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store for dir/session.yaml. The directory is created on Save.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Load returns the saved identity. A missing file yields an empty identity.
// A file holding only one of the two keys is treated as empty too, so the
// caller prompts again.
func (s *Store) Load() (state.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return state.Identity{}, nil
		}
		return state.Identity{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var id state.Identity
	if err := v.Unmarshal(&id); err != nil {
		return state.Identity{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if id.ID == "" || id.Name == "" {
		return state.Identity{}, nil
	}
	return id, nil
}

// Save writes id, replacing any previous identity.
func (s *Store) Save(id state.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure session dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set(KeyUserID, id.ID)
	v.Set(KeyUserName, id.Name)
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the saved identity.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
