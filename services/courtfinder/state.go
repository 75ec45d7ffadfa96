package courtfinder

import (
	"os"
	"path/filepath"
)

// FileStateStore persists the session state as a single file.
type FileStateStore struct {
	Path string
}

func NewFileStateStore(path string) FileStateStore {
	return FileStateStore{Path: path}
}

func (s FileStateStore) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

func (s FileStateStore) Load() ([]byte, error) {
	return os.ReadFile(s.Path)
}

func (s FileStateStore) Save(state []byte) error {
	err := os.MkdirAll(filepath.Dir(s.Path), 0700)
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	err = os.WriteFile(tmp, state, 0600)
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// Delete removes the state, deleting a missing state is not an error.
func (s FileStateStore) Delete() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
