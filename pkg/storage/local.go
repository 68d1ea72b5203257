package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalDisk keeps objects as files below a root directory. The content type
// is not stored; the file server infers it from the extension.
type LocalDisk struct {
	root    string
	baseURL string
}

// NewLocalDisk roots a disk at root, resolved against the working directory
// when relative.
func NewLocalDisk(root, baseURL string) *LocalDisk {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &LocalDisk{root: root, baseURL: baseURL}
}

func (d *LocalDisk) Root() string { return d.root }

func (d *LocalDisk) file(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

// Put writes through a temp file and renames it into place, so readers see
// either the old object or the new one.
func (d *LocalDisk) Put(_ context.Context, key string, r io.Reader, _ string) error {
	name, err := d.file(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage/local: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("storage/local: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	return nil
}

func (d *LocalDisk) Get(_ context.Context, key string) ([]byte, error) {
	name, err := d.file(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("storage/local: %s: %w", key, ErrNotExist)
	case err != nil:
		return nil, fmt.Errorf("storage/local: read %s: %w", key, err)
	}
	return data, nil
}

func (d *LocalDisk) Exists(_ context.Context, key string) (bool, error) {
	name, err := d.file(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("storage/local: stat %s: %w", key, err)
}

func (d *LocalDisk) Delete(_ context.Context, key string) error {
	name, err := d.file(key)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *LocalDisk) URL(key string) string { return joinURL(d.baseURL, key) }
