package timeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveFile writes the events fragment to path, replacing the file.
func (t *Timeline) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrFileUnavailable, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileUnavailable, err)
	}
	if err := t.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads the events fragment from path. A missing or unreadable
// file returns ErrFileUnavailable and leaves the buffer untouched.
func (t *Timeline) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFileUnavailable, err)
	}
	defer f.Close()
	return t.Load(f)
}
