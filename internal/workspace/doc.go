// Package workspace reads and edits pnpm-workspace.yaml. Edits go through
// the YAML node tree so comments, key order and quoting of untouched
// entries survive a rewrite.
package workspace
