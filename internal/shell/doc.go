// Package shell runs the external programs monokit hands off to after
// scaffolding: the package manager, git and husky. These calls are
// post-steps; callers treat their failures as warnings.
package shell
