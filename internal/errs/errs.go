package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the user declines or aborts an interactive
// prompt. It is not a defect and unwinds to the top-level handler.
var ErrCancelled = errors.New("operation cancelled")

// ValidationError reports bad input: an invalid name, an unsafe path
// component, or mutually exclusive options.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NotFoundError is returned when a search is exhausted. Searched lists every
// directory that was examined.
type NotFoundError struct {
	Target   string
	Searched []string
}

func (e *NotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("%s not found", e.Target)
	}
	return fmt.Sprintf("%s not found; searched: %s", e.Target, strings.Join(e.Searched, ", "))
}

// InvalidQueryError is returned when a search query is malformed.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// IOError wraps a filesystem failure with a description of the attempted
// operation, e.g. "writing the json file at '/repo/package.json'".
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("while %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IO wraps err in an IOError. It returns nil when err is nil.
func IO(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: fmt.Sprintf(format, args...), Err: err}
}

// NetworkError reports a failed registry lookup for a package.
type NetworkError struct {
	Package string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("looking up %s: %v", e.Package, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsCancelled reports whether err is (or wraps) ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 130
)

// ExitCode maps an error returned from a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsCancelled(err):
		return ExitCancelled
	default:
		return ExitFailure
	}
}
