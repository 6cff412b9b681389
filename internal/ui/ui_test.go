package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Heading("Creating %s", "acme")
	p.Success("wrote %d files", 3)
	p.Warn("skipped %s", "husky")
	p.Fail("boom")
	p.Info("details")

	assert.Equal(t, "Creating acme\n✓ wrote 3 files\n! skipped husky\n✗ boom\ndetails\n", buf.String())
	assert.Equal(t, "name", p.Accent("name"))
}

func TestIsTerminalNonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.Equal(t, 80, Width(&bytes.Buffer{}, 80))
}

func TestRunSpinnerNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	ran := false
	err := RunSpinner(context.Background(), &buf, "Resolving versions", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, "✓ Resolving versions\n", buf.String())

	buf.Reset()
	boom := errors.New("boom")
	err = RunSpinner(context.Background(), &buf, "Resolving versions", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "✗ Resolving versions\n", buf.String())
}

func TestRenderMarkdownPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, "# Next steps\n\n- `cd acme`\n- `pnpm dev`\n"))
	out := buf.String()
	assert.Contains(t, out, "Next steps")
	assert.Contains(t, out, "cd acme")
	assert.Contains(t, out, "pnpm dev")
}
