package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders md for w. Terminals get glamour's auto style wrapped
// to the terminal width; anything else gets the plain "notty" style.
func RenderMarkdown(w io.Writer, md string) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(Width(w, 80))}
	if IsTerminal(w) {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		_, werr := fmt.Fprintln(w, md)
		return werr
	}
	out, err := renderer.Render(md)
	if err != nil {
		_, werr := fmt.Fprintln(w, md)
		return werr
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(out, "\n "))
	return err
}
