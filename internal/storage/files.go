// Package storage implements the disk-backed blob store used for conspect
// uploads and profile avatars. Paths come from the configuration struct;
// nothing in here reads global state.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore writes and serves blobs under a single base directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: base directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save streams src to disk under a fresh uuid-based object name that keeps
// the original extension. Returns the object name to persist.
func (fs *FileStore) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(fs.dir, name))
	if err != nil {
		return "", fmt.Errorf("storage: create object: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("storage: write object: %w", err)
	}
	return name, nil
}

// Path returns the absolute on-disk path for an object name. Object names
// come from Save, but reject path separators anyway.
func (fs *FileStore) Path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("storage: invalid object name %q", name)
	}
	return filepath.Join(fs.dir, name), nil
}

// Remove deletes an object, ignoring objects already gone.
func (fs *FileStore) Remove(name string) error {
	path, err := fs.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove object: %w", err)
	}
	return nil
}

// Exists reports whether an object is on disk.
func (fs *FileStore) Exists(name string) bool {
	path, err := fs.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
