// Package fileutil creates the hard and symbolic links used to lay out
// matched files.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// CrossDeviceError reports a hard link requested across filesystems.
type CrossDeviceError struct {
	Source string
	Target string
	Err    error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("hard link %s -> %s crosses filesystems", e.Target, e.Source)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// Exists reports whether path exists without following a final symlink.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// EnsureParent creates the parent directory of path. A directory created
// concurrently by someone else is not an error.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// HardLink links target to source, creating parent directories.
func HardLink(source, target string) error {
	if err := EnsureParent(target); err != nil {
		return err
	}
	if err := os.Link(source, target); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, unix.EXDEV) {
			return &CrossDeviceError{Source: source, Target: target, Err: err}
		}
		return fmt.Errorf("hard link: %w", err)
	}
	return nil
}

// SymbolicLink points target at the absolute path of source, creating parent
// directories.
func SymbolicLink(source, target string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", source, err)
	}
	if err := EnsureParent(target); err != nil {
		return err
	}
	if err := os.Symlink(abs, target); err != nil {
		return fmt.Errorf("symbolic link: %w", err)
	}
	return nil
}
