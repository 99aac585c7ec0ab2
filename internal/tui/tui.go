// Package tui provides a Bubble Tea terminal user interface for media-organizer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/organize"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxLogs is the length of the rolling log.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateOrganizing
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   organize.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	inputs   []textinput.Model // source, output
	focus    int
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	log      logrus.FieldLogger
	logs     []LogEntry
	summary  *organize.Summary
	err      error

	// Organizer and its event stream
	organizer *organize.Organizer
	events    chan organize.ProgressEvent

	counts     organize.Counts
	cancelling bool

	// Options
	move     bool
	playlist bool
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model seeded from settings.
func NewModel(settings *config.Settings, log logrus.FieldLogger) Model {
	source := textinput.New()
	source.Placeholder = "/path/to/unsorted/media"
	source.SetValue(settings.SourcePath)
	source.CharLimit = 500
	source.Width = 60
	source.Focus()

	output := textinput.New()
	output.Placeholder = "/path/to/organized"
	output.SetValue(settings.OutputPath)
	output.CharLimit = 500
	output.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	mode, _ := settings.Mode()

	return Model{
		state:    StateInput,
		inputs:   []textinput.Model{source, output},
		spinner:  sp,
		progress: prog,
		settings: settings,
		log:      log,
		move:     mode == model.ModeMove,
		playlist: settings.CreatePlaylists,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one organizer progress event.
	ProgressMsg struct {
		Event organize.ProgressEvent
	}

	// DoneMsg is sent when the run finishes.
	DoneMsg struct {
		Summary *organize.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.organizer != nil {
				m.organizer.Cancel()
			}
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateOrganizing:
				if m.organizer != nil && !m.cancelling {
					m.organizer.Cancel()
					m.cancelling = true
				}
			}
			return m, nil

		case "tab", "shift+tab":
			if m.state == StateInput {
				m.inputs[m.focus].Blur()
				m.focus = (m.focus + 1) % len(m.inputs)
				cmds = append(cmds, m.inputs[m.focus].Focus())
			}
			return m, tea.Batch(cmds...)

		case "enter":
			if m.state == StateInput {
				return m.start()
			}

		case "alt+m":
			if m.state == StateInput {
				m.move = !m.move
			}
			return m, nil

		case "alt+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}
			return m, nil

		case "alt+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for another run
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.summary = nil
				m.organizer = nil
				m.events = nil
				m.counts = organize.Counts{}
				m.cancelling = false
				return m, m.inputs[m.focus].Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, waitForEvent(m.events))

	case DoneMsg:
		m.summary = msg.Summary
		if m.organizer != nil {
			m.counts = m.organizer.Progress()
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		// Poll the organizer's counters
		if m.organizer != nil && m.state == StateOrganizing {
			m.counts = m.organizer.Progress()
			cmds = append(cmds, m.progress.SetPercent(m.percent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text inputs
	if m.state == StateInput {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// start validates the inputs, builds an organizer and launches the run.
func (m Model) start() (tea.Model, tea.Cmd) {
	source := strings.TrimSpace(m.inputs[0].Value())
	output := strings.TrimSpace(m.inputs[1].Value())
	if source == "" || output == "" {
		m.addLog(organize.ProgressEvent{Message: "Source and output are both required", Level: organize.LevelError})
		return m, nil
	}

	// Apply options to a copy so the caller's settings stay untouched
	settings := *m.settings
	settings.SourcePath = source
	settings.OutputPath = output
	settings.CreatePlaylists = m.playlist
	settings.OperationMode = model.ModeCopy.String()
	if m.move {
		settings.OperationMode = model.ModeMove.String()
	}

	events := make(chan organize.ProgressEvent, 256)
	org, err := organize.NewOrganizer(&settings, func(e organize.ProgressEvent) {
		if e.Level == organize.LevelVerbose && !m.verbose {
			return
		}
		select {
		case events <- e:
		default:
			// The log is a rolling view; dropping under load is fine.
		}
	}, organize.WithLogger(m.log))
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	m.state = StateOrganizing
	m.organizer = org
	m.events = events
	m.logs = nil

	run := func() tea.Msg {
		summary, err := org.Organize(context.Background())
		close(events)
		return DoneMsg{Summary: summary, Err: err}
	}
	return m, tea.Batch(run, waitForEvent(events), m.tickProgress(), m.spinner.Tick)
}

// waitForEvent delivers the next progress event as a ProgressMsg.
func waitForEvent(events <-chan organize.ProgressEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: e}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) addLog(e organize.ProgressEvent) {
	m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) percent() float64 {
	if m.counts.Total == 0 {
		return 0
	}
	return float64(m.counts.Processed) / float64(m.counts.Total)
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🗂  Media Organizer"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Sort audio, video, images and ebooks by their metadata"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateOrganizing:
		b.WriteString(m.viewOrganizing())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Source folder:"))
	b.WriteString("\n")
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Output folder:"))
	b.WriteString("\n")
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Move instead of copy (alt+m)\n", check(m.move)))
	b.WriteString(fmt.Sprintf("  %s Create playlists (alt+p)\n", check(m.playlist)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (alt+v)\n", check(m.verbose)))
	b.WriteString("\n")

	// Any validation message from a failed start
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewOrganizing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.cancelling {
		b.WriteString(warningStyle.Render("Cancelling after the current file..."))
	} else {
		b.WriteString(subtitleStyle.Render("Organizing..."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Placed: %d | Skipped: %d | Failed: %d",
		m.counts.Processed,
		m.counts.Total,
		m.counts.Succeeded,
		m.counts.Skipped,
		m.counts.Failed,
	)))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	s := m.summary
	if s == nil {
		return ""
	}

	heading := "✨ Organization Complete!"
	if s.Cancelled {
		heading = "⏹ Organization Cancelled"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Mode: %s\n"+
			"Placed: %d (%d without metadata)\n"+
			"Skipped: %d\n"+
			"Failed: %d\n"+
			"Renamed on collision: %d\n"+
			"Playlists: %d\n"+
			"Time: %s",
		heading,
		s.Mode,
		s.Succeeded, s.Degraded,
		s.Skipped,
		s.Failed,
		len(s.Collisions),
		len(s.Playlists),
		s.Duration().Round(time.Millisecond),
	))

	var b strings.Builder
	b.WriteString(box)
	b.WriteString("\n")
	for _, f := range s.Failures {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", f.Source, f.Err)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, organize.ErrRunInProgress) {
			msg = "another run is already organizing into this folder"
		}
		b.WriteString(fmt.Sprintf("  %s", msg))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case organize.LevelError:
			style = errorStyle
			prefix = "✗"
		case organize.LevelWarning:
			style = warningStyle
			prefix = "!"
		case organize.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case organize.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: switch field • alt+m: mode • alt+p: playlists • alt+v: verbose • esc: quit"
	case StateOrganizing:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

func check(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

// Run starts the TUI application.
func Run(settings *config.Settings, log logrus.FieldLogger) error {
	p := tea.NewProgram(NewModel(settings, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
