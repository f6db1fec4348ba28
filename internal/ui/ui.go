package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
	OutcomeListView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.SyncEngine
	source       string
	services     []string
	tracks       []models.Track
	width        int
	height       int
	trackList    list.Model
	outcomeList  list.Model
	progressChan chan tasks.ProgressUpdate
	done         chan syncCompleteMsg
	progress     map[string]tasks.ProgressUpdate
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model for syncing tracks from source to the named services.
func NewModel(ctx context.Context, engine *tasks.SyncEngine, source string, services []string, tracks []models.Track) *Model {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{track: track}
	}
	trackList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = fmt.Sprintf("%d tracks from %s", len(tracks), source)

	return &Model{
		ctx:       ctx,
		view:      TrackListView,
		engine:    engine,
		source:    source,
		services:  services,
		tracks:    tracks,
		trackList: trackList,
		progress:  map[string]tasks.ProgressUpdate{},
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init has nothing to fetch: tracks are loaded before the program starts.
func (m *Model) Init() tea.Cmd {
	return nil
}

// State returns the current view state.
func (m *Model) State() ViewState {
	return m.view
}

// Result returns the last sync result, if any.
func (m *Model) Result() *tasks.RunResult {
	return m.result
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		if m.view == OutcomeListView {
			m.outcomeList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		case OutcomeListView:
			return m.handleOutcomeListKeys(msg)
		}

	case progressUpdateMsg:
		update := tasks.ProgressUpdate(msg)
		m.progress[update.Service] = update
		return m, waitForProgress(m.progressChan, m.done)

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	case OutcomeListView:
		return m.renderOutcomeList()
	default:
		return ""
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.sync):
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.forceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.no):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.unmatched):
		if m.result == nil {
			return m, nil
		}
		m.outcomeList = m.newOutcomeList()
		m.view = OutcomeListView
		return m, nil
	case key.Matches(msg, m.keys.again):
		m.view = ConfirmView
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleOutcomeListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.outcomeList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = ResultView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.outcomeList, cmd = m.outcomeList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case OutcomeListView:
		m.outcomeList, cmd = m.outcomeList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan syncCompleteMsg, 1)
	m.progress = map[string]tasks.ProgressUpdate{}

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.engine.Run(m.ctx, m.tracks, progress)
		close(progress)
		done <- syncCompleteMsg{result: result, err: err}
	}()

	return waitForProgress(progress, done)
}

// newOutcomeList lists every outcome that did not end up in a playlist.
func (m *Model) newOutcomeList() list.Model {
	var items []list.Item
	for _, target := range m.result.Targets {
		if target.Resolution == nil {
			continue
		}
		for _, o := range target.Resolution.Outcomes {
			if o.Err == nil && o.Result != nil && o.Result.Accepted {
				continue
			}
			items = append(items, outcomeItem{service: target.Service, outcome: o})
		}
	}

	l := list.New(items, list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-8, 0))
	l.Title = fmt.Sprintf("%d unmatched tracks", len(items))
	return l
}

func (m *Model) helpView() string {
	return m.help.ShortHelpView(m.keys.help(m.view))
}

func (m *Model) renderTrackList() string {
	helpView := m.helpView()
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync %d tracks to %s?", len(m.tracks), strings.Join(m.services, ", ")))
	info := fmt.Sprintf("\nSource: %s\nTracks: %d\n", m.source, len(m.tracks))

	helpView := m.helpView()
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Syncing %d tracks", len(m.tracks))))
	b.WriteString("\n")

	for _, name := range m.services {
		update, ok := m.progress[name]
		switch {
		case !ok:
			fmt.Fprintf(&b, "%s: waiting...\n", name)
		case update.Phase == tasks.Resolve:
			fmt.Fprintf(&b, "%s: searching (%d/%d)\n", name, update.Step, update.Total)
		default:
			fmt.Fprintf(&b, "%s: %s\n", name, ProgressLine(update))
		}
	}

	return b.String()
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.error.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}
	if m.result == nil {
		return styles.error.Render("No result available\n\nPress r to retry, q to quit")
	}

	helpView := m.helpView()
	return fmt.Sprintf("%s\n%s", Summary(m.result), helpView)
}

func (m *Model) renderOutcomeList() string {
	helpView := m.helpView()
	return fmt.Sprintf("%s\n\n%s", m.outcomeList.View(), helpView)
}
