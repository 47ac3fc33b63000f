// Package marker persists small one-time decision markers on disk.
package marker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore reads and writes marker files on the local filesystem.
type FileStore struct{}

// NewFileStore returns a filesystem-backed marker store.
func NewFileStore() FileStore { return FileStore{} }

// Exists reports whether a marker file is present. Errors other than
// non-existence are treated as present so a one-time decision is never
// repeated because of a transient stat failure.
func (FileStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// EnsureDirectory creates the parent directory of path.
func (FileStore) EnsureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create marker directory %q: %w", dir, err)
	}
	return nil
}

// WriteText writes content to path, replacing any previous marker atomically.
func (FileStore) WriteText(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create marker temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close marker: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename marker: %w", err)
	}
	return nil
}

// Timestamp renders the marker body for a decision made at t.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ReadTime parses the timestamp stored in a marker, if any.
func ReadTime(path string) (time.Time, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
