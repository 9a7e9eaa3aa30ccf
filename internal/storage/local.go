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

// ErrS3NotConfigured is returned by Publish when no bucket is configured.
var ErrS3NotConfigured = errors.New("storage: S3 is not configured")

// LocalStorage keeps temporary outputs in a single directory on local disk.
type LocalStorage struct {
	dir string
}

// NewLocalStorage prepares dir for temporary outputs, creating it when
// missing. An empty dir means os.TempDir().
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("storage: prepare temp dir %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir}, nil
}

// TempDir returns the directory holding temporary outputs.
func (s *LocalStorage) TempDir() string {
	return s.dir
}

// TempOutput implements Storage. The file is created with mode 0600.
func (s *LocalStorage) TempOutput(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("storage: allocate temp output: %w", err)
	}

	f, err := os.CreateTemp(s.dir, TempPrefix+"*"+filepath.Ext(input))
	if err != nil {
		return "", fmt.Errorf("storage: allocate temp output: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", errors.Join(fmt.Errorf("storage: close temp output: %w", err), os.Remove(path))
	}
	return path, nil
}

// Discard implements Storage.
func (s *LocalStorage) Discard(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("storage: discard %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Publish always fails with ErrS3NotConfigured.
func (s *LocalStorage) Publish(context.Context, string, io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}

var _ Storage = (*LocalStorage)(nil)
