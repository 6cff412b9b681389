// Package scaffold implements the flows behind "monokit new", "monokit create
// package" and "monokit add". Each flow validates its input, resolves the
// versions it needs, renders an embedded template set and then merges
// dependencies into the existing package.json and pnpm-workspace.yaml
// through a named-step Pipeline. Install, git and hook setup run last and
// only ever warn.
package scaffold
