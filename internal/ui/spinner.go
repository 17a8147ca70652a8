package ui

import (
	"io"
	"log/slog"
	"sync"

	"github.com/Cyclone1070/q/internal/ui/views"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spinner animates a status line while the agent waits. Each Start runs a
// small Bubble Tea program that owns only the output; input and signals stay
// with the caller so readline and Ctrl+C keep working.
type Spinner struct {
	out    io.Writer
	styles views.Styles
	logger *slog.Logger

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewSpinner creates a Spinner writing to out.
func NewSpinner(out io.Writer, styles views.Styles, logger *slog.Logger) *Spinner {
	if out == nil {
		panic("out is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Spinner{out: out, styles: styles, logger: logger}
}

// Start shows message next to an animated spinner.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Send(statusMsg(message))
		return
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.styles.Spinner))
	model := spinnerModel{spinner: sp, styles: s.styles, message: message}
	p := tea.NewProgram(model,
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil {
			s.logger.Debug("spinner stopped with error", "error", err)
		}
	}()
	s.program = p
	s.done = done
}

// Stop clears the spinner line and waits for the program to exit.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(stopMsg{})
	<-s.done
	s.program = nil
	s.done = nil
}

type statusMsg string

type stopMsg struct{}

// spinnerModel implements tea.Model for a single status line.
type spinnerModel struct {
	spinner spinner.Model
	styles  views.Styles
	message string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case statusMsg:
		m.message = string(msg)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders nothing once stopped so the line is cleared on exit.
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return views.RenderStatus(m.styles, views.PhaseThinking, m.spinner.View(), m.message)
}

// noActivity is used when the spinner is disabled or output is not a
// terminal.
type noActivity struct{}

func (noActivity) Start(string) {}
func (noActivity) Stop()        {}
