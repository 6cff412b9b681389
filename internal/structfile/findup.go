package structfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
)

// DefaultLimit is the hop limit used when a Query leaves Limit unset.
const DefaultLimit = 5

// EntryType selects whether FindUp matches files or directories.
type EntryType int

const (
	File EntryType = iota
	Dir
)

func (t EntryType) String() string {
	if t == Dir {
		return "directory"
	}
	return "file"
}

// Query describes an upward search.
//
// StartDir defaults to the Env's working directory. Each move to a parent
// directory costs one hop; the search fails once Limit hops are used.
//
// A File query matches a file called Name. A Dir query with Name matches a
// directory called Name, which must also contain one of Markers when any are
// given. A Dir query with only Markers matches the directory being searched
// when it contains one of them. Directories named in ExcludeDirs are never
// listed and never matched.
type Query struct {
	StartDir    string
	Name        string
	Markers     []string
	Type        EntryType
	Limit       int
	ExcludeDirs []string
}

func (q Query) validate() error {
	switch q.Type {
	case File:
		if q.Name == "" {
			return &errs.InvalidQueryError{Reason: "a file search needs a name"}
		}
	case Dir:
		if q.Name == "" && len(q.Markers) == 0 {
			return &errs.InvalidQueryError{Reason: "a directory search needs a name or marker files"}
		}
	default:
		return &errs.InvalidQueryError{Reason: "unknown entry type"}
	}
	return nil
}

func (q Query) target() string {
	if q.Name != "" {
		return q.Type.String() + " " + q.Name
	}
	return "directory containing one of " + strings.Join(q.Markers, ", ")
}

// FindUp walks from the query's start directory toward the filesystem root
// and returns the absolute path of the first match.
func FindUp(env *fsys.Env, q Query) (string, error) {
	if err := q.validate(); err != nil {
		return "", err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	dir := env.Cwd
	if q.StartDir != "" {
		dir = env.Abs(q.StartDir)
	}

	var searched []string
	for hops := 0; hops < limit; hops++ {
		if !slices.Contains(q.ExcludeDirs, filepath.Base(dir)) {
			entries, err := readDir(env, dir)
			if err != nil {
				return "", errs.IO(err, "listing the directory '%s'", dir)
			}
			searched = append(searched, dir)
			if match, ok := q.match(env, dir, entries); ok {
				return match, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", &errs.NotFoundError{Target: q.target(), Searched: searched}
}

func (q Query) match(env *fsys.Env, dir string, entries []os.FileInfo) (string, bool) {
	if q.Type == Dir && q.Name == "" {
		if containsAny(entries, q.Markers) {
			return dir, true
		}
		return "", false
	}
	for _, e := range entries {
		if e.Name() != q.Name {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if q.Type == File {
			if !e.IsDir() {
				return path, true
			}
			continue
		}
		if !e.IsDir() || slices.Contains(q.ExcludeDirs, e.Name()) {
			continue
		}
		if len(q.Markers) == 0 {
			return path, true
		}
		inner, err := readDir(env, path)
		if err == nil && containsAny(inner, q.Markers) {
			return path, true
		}
	}
	return "", false
}

// readDir treats a missing directory as empty; in-memory filesystems do not
// always materialize intermediate directories.
func readDir(env *fsys.Env, dir string) ([]os.FileInfo, error) {
	entries, err := env.FS.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func containsAny(entries []os.FileInfo, names []string) bool {
	for _, e := range entries {
		if slices.Contains(names, e.Name()) {
			return true
		}
	}
	return false
}
