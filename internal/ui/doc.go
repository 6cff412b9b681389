// Package ui holds the terminal presentation helpers shared by commands:
// lipgloss styles for status lines, a spinner shown while slow work runs,
// and markdown rendering for summaries. Everything degrades to plain text
// when the output is not a terminal.
package ui
