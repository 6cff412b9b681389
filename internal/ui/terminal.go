package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether both stdin and w are terminals, i.e. whether
// it is reasonable to prompt.
func Interactive(w io.Writer) bool {
	return IsTerminal(os.Stdin) && IsTerminal(w)
}

// Width returns the terminal width of w, or fallback when unknown.
func Width(w any, fallback int) int {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
