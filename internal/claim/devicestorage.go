package claim

import (
	"os"
	"path/filepath"
	"strings"
)

// FileStorage keeps the device token in a single file, surviving restarts
// the way browser local storage survives reloads.
type FileStorage struct {
	Path string
}

func (s *FileStorage) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileStorage) Store(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token+"\n"), 0o600)
}

func (s *FileStorage) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
