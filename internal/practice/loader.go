package practice

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

// ErrInterrupted is returned when the user cancels a picker or spinner.
var ErrInterrupted = fmt.Errorf("interrupted")

type workDoneMsg struct {
	err error
}

type loaderModel struct {
	label   string
	work    func() error
	spinner spinner.Model
	err     error
	done    bool
}

func newLoaderModel(label string, work func() error) loaderModel {
	return loaderModel{
		label:   label,
		work:    work,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}
}

func (m loaderModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return workDoneMsg{err: work()}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = ErrInterrupted
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s...\n", m.spinner.View(), m.label)
}

// runLoader shows a spinner inline while fn runs. Interrupting cancels the
// context passed to fn.
func runLoader(ctx context.Context, label string, fn func(context.Context) error, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newLoaderModel(label, func() error { return fn(ctx) }),
		tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx))
	result, err := p.Run()
	if err != nil {
		return err
	}
	return result.(loaderModel).err
}
