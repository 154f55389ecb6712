// Package filex holds small filesystem helpers used by the local upload
// store.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned by WriteFile when the source exceeds the limit.
var ErrTooLarge = errors.New("file too large")

// EnsureDir creates dirName (and parents) if missing and returns its
// absolute path. Relative names are resolved against the working directory.
func EnsureDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WriteFile copies at most limit bytes from r into path. The data goes to a
// temporary file in the same directory first and is renamed into place, so
// readers never see a partial file. Missing parent directories are created.
func WriteFile(path string, r io.Reader, limit int64) (int64, error) {
	if _, err := EnsureDir(filepath.Dir(path)); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	n, err := io.Copy(tmp, io.LimitReader(r, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if n > limit {
		return n, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("rename: %w", err)
	}
	return n, nil
}
