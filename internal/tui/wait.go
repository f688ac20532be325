// Package tui provides the interactive terminal pieces built on Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/cli"
)

// workDoneMsg carries the result of the wrapped work.
type workDoneMsg struct {
	err error
}

// WaitModel shows a spinner until the wrapped work finishes.
type WaitModel struct {
	err     error
	work    tea.Cmd
	cancel  context.CancelFunc
	message string
	spinner spinner.Model
	done    bool
}

func newWaitModel(message string, work tea.Cmd, cancel context.CancelFunc) WaitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cli.PrimaryColor)

	return WaitModel{
		message: message,
		work:    work,
		cancel:  cancel,
		spinner: s,
	}
}

// Init starts the spinner and the work.
func (m WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

// Update handles messages.
func (m WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the spinner line; it is cleared once the work is done.
func (m WaitModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s...\n", m.spinner.View(), cli.StyleSubtle(m.message))
}

// Err returns the result of the wrapped work.
func (m WaitModel) Err() error {
	return m.err
}

// RunWithSpinner runs fn while a spinner with message is drawn on out.
// Pressing ctrl+c cancels the context passed to fn.
func RunWithSpinner(ctx context.Context, out io.Writer, message string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := func() tea.Msg {
		return workDoneMsg{err: fn(ctx)}
	}

	program := tea.NewProgram(newWaitModel(message, work, cancel), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("spinner failed: %w", err)
	}

	m, ok := final.(WaitModel)
	if !ok {
		return fmt.Errorf("unexpected spinner model %T", final)
	}
	return m.Err()
}
