package pathutil

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/monokit-dev/monokit/internal/errs"
)

const (
	posixUnsafe   = "\x00/\\"
	windowsUnsafe = "\x00\"*/:<>?\\|"
)

// maxPackageNameLength is the npm limit on package name length.
const maxPackageNameLength = 214

var (
	scopedNamePattern   = regexp.MustCompile(`^@([a-z0-9][a-z0-9._-]*)/([a-z0-9][a-z0-9._-]*)$`)
	unscopedNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// IsValidPathComponent reports whether name can be used as a single path
// component on the current OS.
func IsValidPathComponent(name string) bool {
	return IsValidPathComponentFor(runtime.GOOS, name)
}

// IsValidPathComponentFor is IsValidPathComponent for an explicit GOOS.
func IsValidPathComponentFor(goos, name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	_, unsafe := UnsafePathCharFor(goos, name)
	return !unsafe
}

// UnsafePathChar returns the first character in name that is not allowed in
// a path component on the current OS. A null byte is reported as "null byte".
func UnsafePathChar(name string) (string, bool) {
	return UnsafePathCharFor(runtime.GOOS, name)
}

// UnsafePathCharFor is UnsafePathChar for an explicit GOOS.
func UnsafePathCharFor(goos, name string) (string, bool) {
	unsafe := posixUnsafe
	if goos == "windows" {
		unsafe = windowsUnsafe
	}
	for _, r := range name {
		if r == 0 {
			return "null byte", true
		}
		if strings.ContainsRune(unsafe, r) {
			return string(r), true
		}
		if goos == "windows" && r < 0x20 {
			return fmt.Sprintf("control character %#x", r), true
		}
	}
	return "", false
}

// ValidatePathComponent returns a ValidationError describing why name cannot
// be used as a path component, or nil.
func ValidatePathComponent(field, name string) error {
	if name == "" {
		return errs.Invalid(field, name, "must not be empty")
	}
	if c, bad := UnsafePathChar(name); bad {
		return errs.Invalid(field, name, fmt.Sprintf("contains unsafe character %q", c))
	}
	if !IsValidPathComponent(name) {
		return errs.Invalid(field, name, "is not a valid path component")
	}
	return nil
}

// ValidatePackageName checks name against the npm package naming rules:
// lowercase, URL-safe, optionally scoped as @scope/name.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return errs.Invalid("package name", name, "must not be empty")
	case len(name) > maxPackageNameLength:
		return errs.Invalid("package name", name, fmt.Sprintf("must be at most %d characters", maxPackageNameLength))
	case strings.TrimSpace(name) != name:
		return errs.Invalid("package name", name, "must not have leading or trailing spaces")
	}
	if strings.HasPrefix(name, "@") {
		if !scopedNamePattern.MatchString(name) {
			return errs.Invalid("package name", name, "must match @scope/name with lowercase URL-safe characters")
		}
		return nil
	}
	if !unscopedNamePattern.MatchString(name) {
		return errs.Invalid("package name", name, "must be lowercase and URL-safe, starting with a letter or digit")
	}
	return nil
}

// SplitScope splits "@scope/name" into ("@scope", "name"). Unscoped names
// return an empty scope.
func SplitScope(name string) (scope, base string) {
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i > 0 {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

// DirName returns the directory name used for a package: the unscoped part.
func DirName(pkgName string) string {
	_, base := SplitScope(pkgName)
	return base
}
