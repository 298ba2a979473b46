package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound is when a path does not exist on the filesystem.
	ErrNotFound = errors.New("fileb64: file not found")
	// ErrEmptyPath is when an empty path reaches a filesystem operation.
	ErrEmptyPath = errors.New("fileb64: empty path")
	// ErrNotRegularFile is when a path exists but is not a regular file.
	ErrNotRegularFile = errors.New("fileb64: not a regular file")
)

// NormalizePath checks that p is non-empty and returns its cleaned form.
// All public operations normalize paths at the boundary through this.
func NormalizePath(p string) (string, error) {
	if p == "" {
		return "", ErrEmptyPath
	}
	return filepath.Clean(p), nil
}

// RequireRegularFile checks that path exists and refers to a regular file.
func RequireRegularFile(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotRegularFile, path)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return nil
}

// WriteFileAtomic writes data to path via a temp file and rename, creating
// missing parent directories first. A failed write never leaves a partial
// file at path; an existing file is overwritten in one step.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	// Idempotent - harmless if it already exists.
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("failed to ensure directory %s: %w", dir, err)
	}

	tmpName := fmt.Sprintf("%s.tmp-%d", path, time.Now().UnixNano())
	tmpFile, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
