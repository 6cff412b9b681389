package prompt

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
)

// ConfirmIfFileExists asks before path is overwritten. It returns true when
// path does not exist or the user agreed. Callers must stop when it returns
// false.
func ConfirmIfFileExists(fs billy.Basic, p Prompter, path string) (bool, error) {
	exists, err := fsys.Exists(fs, path)
	if err != nil {
		return false, errs.IO(err, "checking '%s'", path)
	}
	if !exists {
		return true, nil
	}
	return p.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false)
}

// ConfirmIfDirNotEmpty asks before writing into a directory that already
// has entries. It returns true when dir is missing, empty, or the user
// agreed.
func ConfirmIfDirNotEmpty(fs billy.Dir, p Prompter, dir string) (bool, error) {
	empty, err := fsys.IsEmptyDir(fs, dir)
	if err != nil {
		return false, errs.IO(err, "listing '%s'", dir)
	}
	if empty {
		return true, nil
	}
	return p.Confirm(fmt.Sprintf("%s is not empty. Continue anyway?", dir), false)
}
