// Package errs defines the typed failures shared by every monokit package:
// validation, not-found, I/O, network and cancellation. Library code returns
// these wrapped with context; only the CLI boundary turns them into exit codes.
package errs
