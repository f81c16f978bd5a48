package ui

import (
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"netero/internal/logging"
)

type stopMsg struct{}

type spinnerModel struct {
	spinner  spinner.Model
	label    string
	quitting bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.spinner.View() + " " + m.label
}

// Spinner shows a waiting indicator while a completion is in flight.
type Spinner struct {
	program  *tea.Program
	done     chan struct{}
	stopOnce sync.Once
}

// StartSpinner draws a spinner with label on w until Stop is called. It
// never reads input and installs no signal handler.
func StartSpinner(w io.Writer, label string, styles Styles) *Spinner {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	p := tea.NewProgram(
		spinnerModel{spinner: sp, label: styles.Muted.Render(label)},
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s := &Spinner{program: p, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		if _, err := p.Run(); err != nil {
			logging.SessionDebug("spinner stopped: %v", err)
		}
	}()
	return s
}

// Stop clears the spinner and waits for it to finish. Safe to call twice.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.program.Send(stopMsg{})
		<-s.done
	})
}
