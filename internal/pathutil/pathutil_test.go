package pathutil

import (
	"errors"
	"testing"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestIsValidPathComponent(t *testing.T) {
	tests := []struct {
		goos string
		name string
		want bool
	}{
		{"linux", "my-package", true},
		{"linux", "with space", true},
		{"linux", "a:b", true},
		{"linux", "", false},
		{"linux", ".", false},
		{"linux", "..", false},
		{"linux", "a/b", false},
		{"linux", `a\b`, false},
		{"linux", "nul\x00byte", false},
		{"windows", "my-package", true},
		{"windows", "a:b", false},
		{"windows", "what?", false},
		{"windows", "pipe|d", false},
		{"windows", "tab\tname", false},
		{"darwin", "star*", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidPathComponentFor(tt.goos, tt.name), "%s %q", tt.goos, tt.name)
	}
}

func TestUnsafePathCharNullByteLabel(t *testing.T) {
	for _, goos := range []string{"linux", "windows"} {
		c, bad := UnsafePathCharFor(goos, "abc\x00def")
		assert.True(t, bad)
		assert.Equal(t, "null byte", c)
		assert.NotContains(t, c, "\x00")
	}
}

func TestUnsafePathCharFirstOffender(t *testing.T) {
	c, bad := UnsafePathCharFor("windows", "a<b>c")
	assert.True(t, bad)
	assert.Equal(t, "<", c)

	c, bad = UnsafePathCharFor("linux", "clean")
	assert.False(t, bad)
	assert.Empty(t, c)
}

func TestValidatePathComponent(t *testing.T) {
	assert.NoError(t, ValidatePathComponent("name", "web"))

	err := ValidatePathComponent("name", "a/b")
	var ve *errs.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), `unsafe character "/"`)

	assert.Error(t, ValidatePathComponent("name", ""))
}

func TestValidatePackageName(t *testing.T) {
	valid := []string{"ui", "my-lib", "lib.js", "@acme/ui", "@acme/ui-kit", "a1"}
	for _, name := range valid {
		assert.NoError(t, ValidatePackageName(name), name)
	}

	invalid := []string{"", "UI", "@acme", "@acme/", "-lib", ".lib", "my lib", "@Acme/ui", " ui"}
	for _, name := range invalid {
		assert.Error(t, ValidatePackageName(name), name)
	}
}

func TestSplitScope(t *testing.T) {
	scope, base := SplitScope("@acme/ui")
	assert.Equal(t, "@acme", scope)
	assert.Equal(t, "ui", base)

	scope, base = SplitScope("ui")
	assert.Empty(t, scope)
	assert.Equal(t, "ui", base)

	assert.Equal(t, "ui", DirName("@acme/ui"))
}
