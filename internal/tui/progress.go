package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// phaseMsg carries a progress update from the background work.
type phaseMsg string

// doneMsg is sent once the background work returns.
type doneMsg struct{}

// progressModel shows a spinner next to the current phase until the work
// it tracks finishes.
type progressModel struct {
	spinner spinner.Model
	phase   string
	done    bool
}

func newProgressModel(phase string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return progressModel{spinner: s, phase: phase}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case phaseMsg:
		m.phase = string(msg)
		return m, nil
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.phase
}

// Progress runs fn while a spinner on w shows the last phase fn reported.
// When w is not a terminal each phase is printed as its own line instead.
// The spinner is cleared before Progress returns fn's error.
func Progress(ctx context.Context, w io.Writer, initial string, fn func(report func(string)) error) error {
	if !IsTerminal(w) {
		return Plain(w, initial, fn)
	}

	p := tea.NewProgram(newProgressModel(initial),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	errc := make(chan error, 1)
	go func() {
		err := fn(func(phase string) { p.Send(phaseMsg(phase)) })
		errc <- err
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		// The display failed but the work goes on; wait for its result.
		return errors.Join(<-errc, fmt.Errorf("progress display: %w", err))
	}
	return <-errc
}

// Plain runs fn and prints each phase it reports on its own line.
func Plain(w io.Writer, initial string, fn func(report func(string)) error) error {
	if initial != "" {
		fmt.Fprintln(w, Warning(initial))
	}
	return fn(func(phase string) { fmt.Fprintln(w, Warning(phase)) })
}

// IsTerminal reports whether f (typically os.Stdin or os.Stdout) is
// attached to a terminal.
func IsTerminal(f any) bool {
	fd, ok := f.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(fd.Fd()))
}
