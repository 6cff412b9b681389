package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/monokit-dev/monokit/internal/errs"
)

// RunSpinner runs action while showing a spinner with title on w. When w is
// not a terminal the action runs without animation and a single status line
// is printed afterwards. The action's error is returned unchanged; pressing
// ctrl+c cancels the action's context and yields errs.ErrCancelled.
func RunSpinner(ctx context.Context, w io.Writer, title string, action func(context.Context) error) error {
	if !IsTerminal(w) {
		err := action(ctx)
		p := NewPrinter(w)
		if err != nil {
			p.Fail("%s", title)
		} else {
			p.Success("%s", title)
		}
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newSpinnerModel(w, title)
	done := make(chan error, 1)
	go func() { done <- action(ctx) }()

	prog := tea.NewProgram(m, tea.WithOutput(w), tea.WithContext(ctx))
	go func() {
		err := <-done
		prog.Send(actionDoneMsg{err: err})
	}()

	final, err := prog.Run()
	if fm, ok := final.(*spinnerModel); ok && fm.cancelled {
		cancel()
		return errs.ErrCancelled
	}
	if err != nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	return final.(*spinnerModel).err
}

type actionDoneMsg struct{ err error }

type spinnerModel struct {
	title     string
	spin      spinner.Model
	style     lipgloss.Style
	done      bool
	cancelled bool
	err       error
}

func newSpinnerModel(w io.Writer, title string) *spinnerModel {
	r := lipgloss.NewRenderer(w)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = r.NewStyle().Foreground(lipgloss.Color("205"))
	return &spinnerModel{
		title: title,
		spin:  s,
		style: r.NewStyle().Padding(0, 1),
	}
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	case actionDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	if m.done {
		if m.err != nil {
			return m.style.Render("✗ "+m.title) + "\n"
		}
		return m.style.Render("✓ "+m.title) + "\n"
	}
	return m.style.Render(m.spin.View() + " " + m.title)
}
