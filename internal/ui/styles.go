package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled status lines to a writer. Colors are only emitted
// when the writer is a color-capable terminal.
type Printer struct {
	w io.Writer

	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
		accent:  r.NewStyle().Foreground(lipgloss.Color("86")),
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Heading prints a bold section title.
func (p *Printer) Heading(format string, args ...any) {
	fmt.Fprintln(p.w, p.heading.Render(fmt.Sprintf(format, args...)))
}

// Success prints a line prefixed with a check mark.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.warning.Render("! "+fmt.Sprintf(format, args...)))
}

// Fail prints an error line.
func (p *Printer) Fail(format string, args ...any) {
	fmt.Fprintln(p.w, p.failure.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Info prints a dimmed detail line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

// Accent styles s for inline emphasis (names, paths).
func (p *Printer) Accent(s string) string {
	return p.accent.Render(s)
}

// Muted styles s as secondary text.
func (p *Printer) Muted(s string) string {
	return p.muted.Render(s)
}
