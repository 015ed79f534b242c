package outdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrDirectoryReset is returned when the output directory cannot be removed.
// A run must not continue after it.
var ErrDirectoryReset = errors.New("cannot reset output directory")

// ErrInvalidName is returned for names that cannot be used as a file name.
var ErrInvalidName = errors.New("invalid file name")

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Reset removes dir and everything in it. A missing directory is not an
// error. The directory itself is recreated lazily by Save.
func Reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectoryReset, err)
	}
	return nil
}

// Save writes data to dir/name and returns the file's path.
// The file is written to a temporary name and renamed into place, so
// concurrent writers of the same name leave one complete file behind.
func Save(dir, name string, data []byte) (string, error) {
	name, err := sanitize(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return path, nil
}

// Abs returns the absolute form of dir, or dir itself when it cannot be
// resolved.
func Abs(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// sanitize reduces name to a single path element.
func sanitize(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	name = strings.TrimLeft(name, ".")
	if name == "" || name == string(filepath.Separator) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}
