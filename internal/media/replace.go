package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Replace moves src over dst. A plain rename is tried first; when src and
// dst live on different filesystems the data is copied next to dst, renamed
// into place and src is removed. The permissions of an existing dst are
// kept. On failure src is left untouched.
func Replace(src, dst string) error {
	if info, err := os.Stat(dst); err == nil {
		if err := os.Chmod(src, info.Mode().Perm()); err != nil {
			return fmt.Errorf("chmod %s: %w", src, err)
		}
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}

	if err := copyInto(src, dst); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", src, err)
	}
	return nil
}

// copyInto writes src to a sibling temp file of dst, then renames it over
// dst so readers never observe a half-written dst. The mode of an existing
// dst is preserved.
func copyInto(src, dst string) (err error) {
	in, err := os.Open(src) // #nosec G304 - src is a path this program created
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	mode := os.FileMode(0644)
	if info, statErr := os.Stat(dst); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
