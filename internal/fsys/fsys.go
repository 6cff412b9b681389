package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// Env bundles a filesystem with the working directory relative paths are
// resolved against. It replaces ambient os.Getwd lookups.
type Env struct {
	FS  billy.Filesystem
	Cwd string
}

// OS returns an Env backed by the real filesystem, rooted at "/" so callers
// can use absolute paths.
func OS() (*Env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return &Env{FS: osfs.New(string(filepath.Separator)), Cwd: cwd}, nil
}

// Memory returns an Env backed by an empty in-memory filesystem.
func Memory(cwd string) *Env {
	return &Env{FS: memfs.New(), Cwd: filepath.Clean(cwd)}
}

// WithCwd returns a copy of e using dir as the working directory.
func (e *Env) WithCwd(dir string) *Env {
	return &Env{FS: e.FS, Cwd: e.Abs(dir)}
}

// Abs resolves p against the working directory.
func (e *Env) Abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(e.Cwd, p)
}

// Exists reports whether path exists on fsys.
func Exists(fsys billy.Basic, path string) (bool, error) {
	_, err := fsys.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether path exists and is a directory.
func IsDir(fsys billy.Basic, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}

// IsEmptyDir reports whether dir is missing or has no entries.
func IsEmptyDir(fsys billy.Dir, dir string) (bool, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

// Chmod sets file permissions when the filesystem supports it. On Windows
// it is a no-op because Unix permission bits do not apply.
func Chmod(fsys billy.Basic, path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	ch, ok := fsys.(billy.Chmod)
	if !ok {
		return nil
	}
	return ch.Chmod(path, mode)
}
