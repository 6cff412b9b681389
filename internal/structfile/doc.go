// Package structfile reads and writes JSON and YAML files through an
// injected billy filesystem, answers JSONPath queries against JSON files, and
// locates files by walking up the directory tree.
//
// Every filesystem failure is returned as an *errs.IOError naming the
// operation that was attempted, so callers can wrap further context without
// losing the path.
package structfile
