package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File writes to a local path, creating parent directories as needed.
type File struct {
	path string
}

// NewFile creates a file sink.
func NewFile(path string) *File {
	return &File{path: path}
}

// Write replaces the file's contents with data.
func (f *File) Write(_ context.Context, data []byte) (string, error) {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create parent directories: %w", err)
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return f.path, nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}
