// Package tui shows watch mode results in a full screen terminal view.
package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/patchcheck/internal/report"
	"github.com/sokinpui/patchcheck/model"
	"github.com/sokinpui/patchcheck/patchcheck"
)

// --- Styles ---
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))  // Mauve
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("197")) // Red
	faintStyle  = lipgloss.NewStyle().Faint(true)
	spinStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// --- Messages ---
type runningMsg struct{ generation int }

type resultMsg struct {
	generation int
	report     model.Report
	finished   time.Time
}

type errorMsg struct {
	generation int
	err        error
}

func (e errorMsg) Error() string { return e.err.Error() }

// stoppedMsg is sent when the watcher itself gives up.
type stoppedMsg struct{ err error }

// --- Model ---
type Model struct {
	spinner    spinner.Model
	state      state
	generation int
	report     model.Report
	finished   time.Time
	err        error
	title      string
}

type state int

const (
	stateChecking state = iota
	stateReport
	stateError
)

// New creates the view. title names what is being watched.
func New(title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinStyle
	return Model{spinner: s, state: stateChecking, title: title}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case runningMsg:
		if msg.generation < m.generation {
			return m, nil
		}
		m.generation = msg.generation
		if m.state == stateChecking {
			return m, nil
		}
		m.state = stateChecking
		return m, m.spinner.Tick

	case resultMsg:
		if msg.generation < m.generation {
			return m, nil
		}
		m.generation = msg.generation
		m.state = stateReport
		m.report = msg.report
		m.finished = msg.finished
		m.err = nil

	case errorMsg:
		if msg.generation < m.generation {
			return m, nil
		}
		m.generation = msg.generation
		m.state = stateError
		m.err = msg.err

	case stoppedMsg:
		m.state = stateError
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateChecking {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Watching " + m.title))
	b.WriteString("\n")

	switch m.state {
	case stateChecking:
		if m.generation > 1 {
			fmt.Fprintf(&b, "%s Change detected, checking...\n", m.spinner.View())
		} else {
			fmt.Fprintf(&b, "%s Checking...\n", m.spinner.View())
		}
	case stateError:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case stateReport:
		var out bytes.Buffer
		report.Render(&out, m.report)
		b.WriteString(out.String())
		b.WriteString(faintStyle.Render("Last checked " + m.finished.Format("15:04:05")))
		b.WriteString("\n")
	}

	b.WriteString(faintStyle.Render("Press q to quit."))
	b.WriteString("\n")
	return b.String()
}

// Run watches with app and shows every result until the user quits.
func Run(ctx context.Context, app *patchcheck.App, title string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(title), tea.WithAltScreen(), tea.WithContext(ctx))

	watchErr := make(chan error, 1)
	go func() {
		err := app.Watch(ctx, func(ev patchcheck.WatchEvent) {
			p.Send(eventMsg(ev))
		})
		if err != nil {
			p.Send(stoppedMsg{err})
		}
		watchErr <- err
	}()

	final, err := p.Run()
	cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}
	if m, ok := final.(Model); ok && m.state == stateError && m.err != nil {
		var detailed *patchcheck.DetailedError
		if errors.As(m.err, &detailed) {
			return detailed
		}
	}
	return <-watchErr
}

func eventMsg(ev patchcheck.WatchEvent) tea.Msg {
	switch {
	case ev.Running:
		return runningMsg{generation: ev.Generation}
	case ev.Err != nil:
		return errorMsg{generation: ev.Generation, err: ev.Err}
	default:
		return resultMsg{generation: ev.Generation, report: ev.Report, finished: time.Now()}
	}
}
