package shell

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" || !Available("sh") {
		t.Skip("sh not available")
	}
	var live bytes.Buffer
	r := &ExecRunner{Stdout: &live}
	out, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hello"}, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.Stdout)
	assert.Equal(t, "hello\n", live.String())
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" || !Available("sh") {
		t.Skip("sh not available")
	}
	r := &ExecRunner{}
	out, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecRunner_MissingProgram(t *testing.T) {
	r := &ExecRunner{}
	_, err := r.Run(context.Background(), Command{Name: "monokit-definitely-not-installed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not on PATH")
}

func TestRecorder(t *testing.T) {
	boom := errors.New("boom")
	r := &Recorder{Fail: map[string]error{"git": boom}}

	_, err := r.Run(context.Background(), Command{Name: "pnpm", Args: []string{"install"}})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), Command{Name: "git", Args: []string{"init"}})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"pnpm install", "git init"}, r.Names())
}
