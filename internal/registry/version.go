package registry

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a published version, tolerating a leading "v".
func ParseVersion(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}

// Caret formats version as a caret range, e.g. "^1.2.3".
func Caret(version string) (string, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", version, err)
	}
	return "^" + v.String(), nil
}

// IsNewer reports whether latest is a newer version than the one a range
// such as "^1.2.3" or "~1.2.3" was pinned to. Ranges that do not name a
// single version are never considered outdated.
func IsNewer(spec, latest string) bool {
	current, err := ParseVersion(strings.TrimLeft(spec, "^~=>"))
	if err != nil {
		return false
	}
	lv, err := ParseVersion(latest)
	if err != nil {
		return false
	}
	return current.LessThan(lv)
}
