// Package tui provides a Bubble Tea terminal user interface for browsing the
// gadget catalog.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/gadget-browser/internal/catalog"
	"github.com/handiism/gadget-browser/internal/config"
	"github.com/handiism/gadget-browser/internal/download"
	"github.com/handiism/gadget-browser/internal/model"
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
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500")).
			Bold(true)
)

const (
	pageSize = 10
	maxLogs  = 8
)

// State represents the current UI state.
type State int

const (
	StateLoading State = iota
	StateBrowse
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	events  chan download.ProgressEvent

	categories []string
	category   int
	results    []*model.Plugin
	cursor     int
	pageStart  int
	stats      download.Stats

	refresh bool
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings, refresh bool) Model {
	ti := textinput.New()
	ti.Placeholder = "search gadgets"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan download.ProgressEvent, 64)

	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		// Never block a fetch goroutine on the UI.
		select {
		case events <- event:
		default:
		}
	})

	return Model{
		state:      StateLoading,
		textInput:  ti,
		spinner:    sp,
		progress:   prog,
		settings:   settings,
		ctx:        ctx,
		cancel:     cancel,
		manager:    manager,
		events:     events,
		categories: []string{catalog.CategoryAll},
		refresh:    refresh,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadCatalog(), m.listenProgress())
}

// Message types
type (
	// ProgressMsg is sent when the manager reports progress.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// CatalogLoadedMsg is sent when the catalog finished loading.
	CatalogLoadedMsg struct {
		Err error
	}

	// TickMsg is for periodic queue updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 30
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.manager.Close()
			m.cancel()
			return m, tea.Quit

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			m.fetchVisibleThumbnails(false)
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			m.fetchVisibleThumbnails(false)
			return m, nil

		case "tab":
			if m.state == StateBrowse && len(m.categories) > 0 {
				m.category = (m.category + 1) % len(m.categories)
				m.updateResults()
			}
			return m, nil

		case "ctrl+v":
			m.verbose = !m.verbose
			return m, nil

		case "enter":
			if m.state == StateBrowse && len(m.results) > 0 {
				p := m.results[m.cursor]
				if err := m.manager.DownloadPlugin(p.ID, m.manager.Installed(p)); err != nil {
					m.addLog(LogEntry{Message: err.Error(), Level: download.LevelError})
				}
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Level != download.LevelVerbose || m.verbose {
			m.addLog(LogEntry{
				Message: msg.Event.Message,
				Level:   msg.Event.Level,
			})
		}
		cmds = append(cmds, m.listenProgress())

	case CatalogLoadedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.state = StateBrowse
		// Sorted, so "all" comes first.
		m.categories = m.manager.Catalog().Categories(m.settings.Language)
		if len(m.categories) == 0 {
			m.categories = []string{catalog.CategoryAll}
		}
		m.updateResults()
		cmds = append(cmds, m.tickProgress())

	case TickMsg:
		m.stats = m.manager.Stats()
		cmds = append(cmds, m.progress.SetPercent(m.thumbnailRatio()), m.tickProgress())

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateBrowse {
		before := m.textInput.Value()
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
		if m.textInput.Value() != before {
			m.updateResults()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) addLog(entry LogEntry) {
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// updateResults reruns the search, or lists the selected category when
// the query is empty.
func (m *Model) updateResults() {
	var (
		results []*model.Plugin
		err     error
	)
	if query := strings.TrimSpace(m.textInput.Value()); query != "" {
		results, err = m.manager.Search(query)
	} else {
		results, err = m.manager.Plugins(m.categories[m.category])
	}
	if err != nil {
		m.addLog(LogEntry{Message: err.Error(), Level: download.LevelError})
		return
	}

	m.results = results
	m.cursor = 0
	m.fetchVisibleThumbnails(true)
}

func (m *Model) visible() (start, end int) {
	start = m.cursor - m.cursor%pageSize
	end = start + pageSize
	if end > len(m.results) {
		end = len(m.results)
	}
	return start, end
}

// fetchVisibleThumbnails queues the thumbnails of the page on screen once
// the results or the page change, dropping fetches for the previous page.
func (m *Model) fetchVisibleThumbnails(newResults bool) {
	start, end := m.visible()
	if !newResults && start == m.pageStart {
		return
	}
	m.pageStart = start

	m.manager.ClearThumbnails()
	if start < end {
		m.manager.FetchThumbnails(m.results[start:end])
	}
}

// thumbnailRatio is the share of visible results whose thumbnail is cached.
func (m Model) thumbnailRatio() float64 {
	start, end := m.visible()
	if start >= end {
		return 0
	}
	cached := 0
	for _, p := range m.results[start:end] {
		if _, ok := m.manager.ThumbnailPath(p.ID); ok {
			cached++
		}
	}
	return float64(cached) / float64(end-start)
}

// listenProgress waits for the next manager event.
func (m Model) listenProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-m.events:
			return ProgressMsg{Event: event}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// tickProgress returns a command to tick queue updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Gadget Browser"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Language: %s | Gadgets: %s", m.settings.Language, m.settings.GadgetsDir)))
	b.WriteString("\n\n")

	switch m.state {
	case StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Loading catalog..."))
		b.WriteString("\n\n")
		b.WriteString(m.renderLogs())
	case StateBrowse:
		b.WriteString(m.viewBrowse())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	b.WriteString(m.textInput.View())
	b.WriteString("  ")
	b.WriteString(subtitleStyle.Render("[" + m.categories[m.category] + "]"))
	b.WriteString("\n\n")

	start, end := m.visible()
	if start >= end {
		b.WriteString(dimStyle.Render("  no gadgets found"))
		b.WriteString("\n")
	}

	var list strings.Builder
	for i := start; i < end; i++ {
		p := m.results[i]
		thumb := "□"
		if _, ok := m.manager.ThumbnailPath(p.ID); ok {
			thumb = "▣"
		}
		line := fmt.Sprintf("%s %s %s", thumb, p.Title(m.settings.Language), renderStatus(m.manager.Status(p.ID)))
		if i == m.cursor {
			list.WriteString(selectedStyle.Render("› " + line))
		} else {
			list.WriteString("  " + line)
		}
		list.WriteString("\n")
	}
	b.WriteString(list.String())

	if start < end {
		selected := m.results[m.cursor]
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(selected.Description(m.settings.Language) + "\n" +
			dimStyle.Render(selected.Summary())))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d", m.cursor+1, len(m.results))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Thumbnails: %d cached, %d waiting, %d fetching | Packages: %d waiting, %d fetching",
		m.stats.ThumbnailsCached,
		m.stats.ThumbnailsPending,
		m.stats.ThumbnailsInFlight,
		m.stats.PackagesPending,
		m.stats.PackagesInFlight,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func renderStatus(status model.DownloadStatus) string {
	switch status {
	case model.DownloadAdding:
		return warningStyle.Render("adding...")
	case model.DownloadAdded:
		return successStyle.Render("added")
	case model.DownloadError:
		return errorStyle.Render("error")
	}
	return ""
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
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
	case StateBrowse:
		return "type: search • ↑/↓: select • enter: add gadget • tab: category • ctrl+v: verbose • esc: quit"
	}
	return "esc: quit"
}

// loadCatalog loads plugins.xml in the background.
func (m Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		return CatalogLoadedMsg{Err: m.manager.LoadCatalog(m.ctx, m.refresh)}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, refresh bool) error {
	m := NewModel(settings, refresh)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.manager.Close()
	return err
}
