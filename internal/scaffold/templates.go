package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed all:templates
var embedded embed.FS

// Template set directories.
const (
	setMonorepo = "monorepo"
	setPackage  = "package"
	setTools    = "tools"
	setHooks    = "hooks"
)

// Templates returns the template sets compiled into the binary.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplatesFrom returns the template sets in dir, or the embedded ones when
// dir is empty. A directory on disk must carry the same set layout.
func TemplatesFrom(dir string) (fs.FS, error) {
	if dir == "" {
		return Templates(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening templates directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates directory %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}
