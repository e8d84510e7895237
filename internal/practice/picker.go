package practice

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

const (
	noChoice  = -1
	cancelled = -2
)

type pickerModel struct {
	title   string
	options []string
	cursor  int
	chosen  int
}

func newPickerModel(title string, options []string) pickerModel {
	return pickerModel{title: title, options: options, chosen: noChoice}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.chosen = cancelled
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.chosen != noChoice {
		return ""
	}
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteString("\n")
	for i, option := range m.options {
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> " + option))
		} else {
			b.WriteString(pickerItemStyle.Render(option))
		}
		b.WriteString("\n")
	}
	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// runPicker shows an interactive selector and returns the chosen index,
// or cancelled when the user quit.
func runPicker(title string, options []string, in io.Reader, out io.Writer) (int, error) {
	if len(options) == 0 {
		return cancelled, fmt.Errorf("nothing to choose for %q", title)
	}
	p := tea.NewProgram(newPickerModel(title, options), tea.WithInput(in), tea.WithOutput(out))
	result, err := p.Run()
	if err != nil {
		return cancelled, err
	}
	return result.(pickerModel).chosen, nil
}
