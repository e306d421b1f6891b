// Package tui provides a Bubble Tea terminal user interface for dvtag.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NobeKanai/dvtag/internal/config"
	"github.com/NobeKanai/dvtag/internal/tagging"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
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

	releaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const (
	maxLogs        = 10
	maxReleaseRows = 8
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDiscovering
	StateTagging
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   tagging.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	releases  []string
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	manager *tagging.Manager
	events  chan tagging.ProgressEvent
	stats   tagging.Progress

	// Options
	dryRun   bool
	playlist bool
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model. settings is copied before each run
// and the options toggled in the UI are applied to the copy.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/voice/library"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	if wd, err := os.Getwd(); err == nil {
		ti.SetValue(wd)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		ctx:       ctx,
		cancel:    cancel,
		playlist:  settings.CreatePlaylist,
		dryRun:    settings.DryRun,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one event from the manager.
	ProgressMsg struct {
		Event tagging.ProgressEvent
	}

	// DiscoverDoneMsg is sent when release discovery completes.
	DiscoverDoneMsg struct {
		Releases []string
		Manager  *tagging.Manager
		Err      error
	}

	// RunDoneMsg is sent when all releases were processed.
	RunDoneMsg struct {
		Progress tagging.Progress
		Err      error
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
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateTagging || m.state == StateDiscovering {
				m.cancel()
				m.state = StateError
				m.err = errors.New("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateDiscovering
				m.events = make(chan tagging.ProgressEvent, 256)
				return m, tea.Batch(m.discover(), m.waitForEvent(), m.spinner.Tick)
			}

		case "f1":
			if m.state == StateInput {
				m.dryRun = !m.dryRun
			}

		case "f2":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "f3":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.state = StateInput
				m.logs = nil
				m.releases = nil
				m.err = nil
				m.stats = tagging.Progress{}
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		if msg.Event.Level == tagging.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case DiscoverDoneMsg:
		switch {
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case len(msg.Releases) == 0:
			m.state = StateError
			m.err = errors.New("no release directories found")
		default:
			m.releases = msg.Releases
			m.manager = msg.Manager
			m.state = StateTagging
			cmds = append(cmds, m.run(), m.tickProgress())
		}

	case RunDoneMsg:
		m.stats = msg.Progress
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errors.New("cancelled by user")
		case msg.Err != nil && !errors.Is(msg.Err, tagging.ErrReleasesFailed):
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateTagging {
			m.stats = m.manager.GetProgress()

			var percent float64
			if m.stats.Releases > 0 {
				percent = float64(m.stats.DoneReleases) / float64(m.stats.Releases)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent delivers the next manager event as a ProgressMsg.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("dvtag"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Tag doujin voice releases with DLsite metadata"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDiscovering:
		b.WriteString(m.viewDiscovering())
	case StateTagging:
		b.WriteString(m.viewTagging())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Library directory:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Dry run, do not write files (f1)\n", checkbox(m.dryRun))
	fmt.Fprintf(&b, "  %s Create playlist (f2)\n", checkbox(m.playlist))
	fmt.Fprintf(&b, "  %s Verbose output (f3)\n", checkbox(m.verbose))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Transcode: %s | Releases in parallel: %d", m.settings.Transcode, m.settings.MaxConcurrentReleases)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDiscovering() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking for releases..."))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewTagging() string {
	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("Found %d release(s):", len(m.releases))))
	b.WriteString("\n")
	for i, r := range m.releases {
		if i == maxReleaseRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.releases)-maxReleaseRows)))
			b.WriteString("\n")
			break
		}
		b.WriteString(releaseStyle.Render("  ♪ " + r))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	var percent float64
	if m.stats.Releases > 0 {
		percent = float64(m.stats.DoneReleases) / float64(m.stats.Releases)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Releases: %d/%d | Tagged: %d | Unchanged: %d | Failed: %d",
		m.stats.DoneReleases,
		m.stats.Releases,
		m.stats.TaggedFiles,
		m.stats.UnchangedFiles,
		m.stats.FailedFiles,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	title := "Tagging Complete!"
	if m.dryRun {
		title = "Dry Run Complete!"
	}

	return boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Releases: %d (%d failed, %d skipped)\n"+
			"Tagged files: %d\n"+
			"Unchanged files: %d\n"+
			"Failed files: %d",
		title,
		m.stats.Releases,
		m.stats.FailedReleases,
		m.stats.SkippedReleases,
		m.stats.TaggedFiles,
		m.stats.UnchangedFiles,
		m.stats.FailedFiles,
	)) + "\n\n" + m.renderLogs()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n\n", m.err.Error())
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, entry := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch entry.Level {
		case tagging.LevelError:
			style = errorStyle
			prefix = "✗"
		case tagging.LevelWarning:
			style = warningStyle
			prefix = "!"
		case tagging.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case tagging.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + entry.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • f1: dry run • f2: playlist • f3: verbose • esc: quit"
	case StateDiscovering, StateTagging:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

// runSettings returns a copy of the settings with the UI options applied.
func (m Model) runSettings() *config.Settings {
	s := *m.settings
	s.DryRun = m.dryRun
	s.CreatePlaylist = m.playlist
	return &s
}

// discover creates the manager and finds the releases under the input
// directory.
func (m Model) discover() tea.Cmd {
	dir := filepath.Clean(strings.TrimSpace(m.textInput.Value()))
	settings := m.runSettings()
	ctx := m.ctx
	events := m.events

	return func() tea.Msg {
		manager := tagging.NewManager(settings, func(event tagging.ProgressEvent) {
			select {
			case events <- event:
			default:
				// drop events while the UI is behind
			}
		})

		if err := manager.Discover(ctx, dir); err != nil {
			return DiscoverDoneMsg{Err: err}
		}

		var names []string
		for _, r := range manager.Releases() {
			names = append(names, fmt.Sprintf("%s  %s", r.ID, filepath.Base(r.Path)))
		}

		return DiscoverDoneMsg{Releases: names, Manager: manager}
	}
}

// run tags the discovered releases in background.
func (m Model) run() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return RunDoneMsg{Err: errors.New("no manager")}
		}

		err := manager.Run(ctx)
		return RunDoneMsg{Progress: manager.GetProgress(), Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
