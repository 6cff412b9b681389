package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/monokit-dev/monokit/internal/errs"
)

// Prompter asks questions.
type Prompter interface {
	Confirm(message string, def bool) (bool, error)
	Input(message, def string) (string, error)
	Select(message string, options []string, def string) (string, error)
	MultiSelect(message string, options []string, defs []string) ([]string, error)
}

// maxAttempts bounds re-prompting after invalid answers.
const maxAttempts = 3

// Line is a Prompter that reads answers line by line, presenting choices as
// numbered menus.
type Line struct {
	r *bufio.Reader
	w io.Writer

	question lipgloss.Style
	hint     lipgloss.Style
}

// NewLine returns a Line prompter reading from r and writing to w.
func NewLine(r io.Reader, w io.Writer) *Line {
	lr := lipgloss.NewRenderer(w)
	return &Line{
		r:        bufio.NewReader(r),
		w:        w,
		question: lr.NewStyle().Bold(true),
		hint:     lr.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (l *Line) readLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errs.ErrCancelled
		}
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question.
func (l *Line) Confirm(message string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for range maxAttempts {
		fmt.Fprintf(l.w, "%s %s ", l.question.Render(message), l.hint.Render("["+hint+"]"))
		answer, err := l.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(l.w, "Please answer y or n.")
	}
	return false, errs.Invalid("answer", "", "expected y or n")
}

// Input asks for free text. An empty answer selects def.
func (l *Line) Input(message, def string) (string, error) {
	prompt := l.question.Render(message)
	if def != "" {
		prompt += " " + l.hint.Render("("+def+")")
	}
	fmt.Fprintf(l.w, "%s: ", prompt)
	answer, err := l.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Select presents a numbered list and returns the chosen option.
func (l *Line) Select(message string, options []string, def string) (string, error) {
	if len(options) == 0 {
		return "", errs.Invalid("options", "", "nothing to choose from")
	}
	l.menu(message, options, []string{def})
	for range maxAttempts {
		fmt.Fprintf(l.w, "Enter number [1-%d]: ", len(options))
		answer, err := l.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" && slices.Contains(options, def) {
			return def, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		fmt.Fprintf(l.w, "Invalid selection %q: choose 1-%d.\n", answer, len(options))
	}
	return "", errs.Invalid("selection", "", fmt.Sprintf("choose 1-%d", len(options)))
}

// MultiSelect presents a numbered list and accepts a comma or space
// separated list of numbers. An empty answer selects defs; "none" selects
// nothing.
func (l *Line) MultiSelect(message string, options []string, defs []string) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}
	l.menu(message, options, defs)
	for range maxAttempts {
		fmt.Fprintf(l.w, "Enter numbers separated by commas [1-%d], or none: ", len(options))
		answer, err := l.readLine()
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(answer) {
		case "":
			return slices.Clone(defs), nil
		case "none", "-":
			return []string{}, nil
		}
		if picked, ok := parseNumbers(answer, options); ok {
			return picked, nil
		}
		fmt.Fprintf(l.w, "Invalid selection %q.\n", answer)
	}
	return nil, errs.Invalid("selection", "", fmt.Sprintf("choose numbers 1-%d", len(options)))
}

func (l *Line) menu(message string, options []string, defs []string) {
	fmt.Fprintf(l.w, "\n%s\n", l.question.Render(message))
	for i, opt := range options {
		marker := " "
		if slices.Contains(defs, opt) {
			marker = "*"
		}
		fmt.Fprintf(l.w, " %s%d) %s\n", marker, i+1, opt)
	}
}

func parseNumbers(answer string, options []string) ([]string, bool) {
	fields := strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' })
	var picked []string
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(options) {
			return nil, false
		}
		if !slices.Contains(picked, options[n-1]) {
			picked = append(picked, options[n-1])
		}
	}
	return picked, len(picked) > 0
}
