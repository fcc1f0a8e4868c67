package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wherebelong/belong/internal/client"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/player"
	"github.com/wherebelong/belong/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	SearchView
	HistoryView
	ConfirmClearView
)

// eventBuffer bounds the listener-to-update pump. Pushes beyond it are
// dropped; the next full snapshot converges the view anyway.
const eventBuffer = 50

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	api        *client.Client
	controller *player.Controller
	identity   models.Identity
	baseURL    string

	view   ViewState
	width  int
	height int

	queueList   list.Model
	queue       []*models.QueueEntry
	stats       models.QueueStats
	current     *models.CurrentSong
	searchInput textinput.Model
	resultList  list.Model
	historyList list.Model

	events chan tea.Msg
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
// The controller may be nil; playback keys then report an error instead.
func NewModel(ctx context.Context, api *client.Client, controller *player.Controller, identity models.Identity, baseURL string) *Model {
	input := textinput.New()
	input.Placeholder = "Search Spotify..."
	input.CharLimit = 100

	queueList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	queueList.Title = "Our Queue"
	queueList.SetShowHelp(false)

	return &Model{
		ctx:         ctx,
		api:         api,
		controller:  controller,
		identity:    identity,
		baseURL:     baseURL,
		view:        QueueView,
		queueList:   queueList,
		searchInput: input,
		events:      make(chan tea.Msg, eventBuffer),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init fetches initial state and starts the websocket listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchQueue(), m.fetchCurrent(), m.startListener())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queueList.SetSize(msg.Width-4, msg.Height-10)
		m.resultList.SetSize(msg.Width-4, msg.Height-10)
		m.historyList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		case ConfirmClearView:
			return m.handleConfirmKeys(msg)
		}

	case queueLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setQueue(msg.state.Queue, msg.state.Stats)
		return m, nil

	case currentLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.current = msg.current
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.entries))
		for i, entry := range msg.entries {
			items[i] = historyItem{entry: entry}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.historyList.Title = "Played Songs"
		m.historyList.SetShowHelp(false)
		m.view = HistoryView
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.songs))
		for i, song := range msg.songs {
			items[i] = songItem{song: song}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-10)
		m.resultList.Title = "Results"
		m.resultList.SetShowHelp(false)
		m.searchInput.Blur()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, shared.ErrConflict):
				m.status = "already in the queue"
			case errors.Is(msg.err, shared.ErrEmptyQueue):
				m.status = "the queue is empty"
			default:
				m.err = msg.err
			}
			return m, nil
		}
		m.status = msg.status
		return m, nil

	case queueEventMsg:
		stats := models.QueueStats{TotalSongs: len(msg.queue)}
		for _, entry := range msg.queue {
			stats.TotalDuration += entry.Song.Duration
			switch entry.AddedBy {
			case models.IdentityYours:
				stats.AddedByYours++
			case models.IdentityCrush:
				stats.AddedByCrush++
			}
		}
		m.setQueue(msg.queue, stats)
		m.status = msg.action
		return m, m.waitForEvent()

	case songEventMsg:
		m.current = msg.song
		return m, m.waitForEvent()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case QueueView:
		return m.renderQueue()
	case SearchView:
		return m.renderSearch()
	case HistoryView:
		return m.renderHistory()
	case ConfirmClearView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.add):
		m.view = SearchView
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.history):
		return m, m.fetchHistory()
	case key.Matches(msg, m.keys.next):
		return m, m.advance()
	case key.Matches(msg, m.keys.shuffle):
		return m, m.shuffle()
	case key.Matches(msg, m.keys.clear):
		m.view = ConfirmClearView
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.queueList.SelectedItem().(queueItem); ok {
			return m, m.removeSong(item.entry.Song.SongID)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.togglePlayback()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.queueList.SelectedItem().(queueItem); ok {
			return m, m.playLocal(item.entry.Song)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searchInput.Focused() {
		switch msg.String() {
		case "esc":
			m.searchInput.Blur()
			m.searchInput.SetValue("")
			m.view = QueueView
			return m, nil
		case "enter":
			query := m.searchInput.Value()
			if query == "" {
				return m, nil
			}
			return m, m.search(query)
		case "tab", "down":
			if len(m.resultList.Items()) > 0 {
				m.searchInput.Blur()
				return m, nil
			}
		}

		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "tab":
		m.searchInput.Focus()
		return m, textinput.Blink
	case "q":
		m.view = QueueView
		return m, nil
	case "enter":
		if item, ok := m.resultList.SelectedItem().(songItem); ok {
			return m, m.addSong(item.song)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = QueueView
		return m, nil
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.view = QueueView
		return m, m.clearQueue()
	case "n", "esc", "q", "ctrl+c":
		m.view = QueueView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case QueueView:
		m.queueList, cmd = m.queueList.Update(msg)
	case SearchView:
		if !m.searchInput.Focused() {
			m.resultList, cmd = m.resultList.Update(msg)
		}
	case HistoryView:
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m *Model) setQueue(queue []*models.QueueEntry, stats models.QueueStats) {
	m.queue = queue
	m.stats = stats

	items := make([]list.Item, len(queue))
	for i, entry := range queue {
		items[i] = queueItem{entry: entry}
	}
	m.queueList.SetItems(items)
}

func (m *Model) startListener() tea.Cmd {
	listener := client.NewListener(m.baseURL, nil)
	listener.OnQueueUpdated = func(action string, queue []*models.QueueEntry) {
		select {
		case m.events <- queueEventMsg{action: action, queue: queue}:
		default:
		}
	}
	listener.OnSongUpdated = func(song *models.CurrentSong) {
		select {
		case m.events <- songEventMsg{song: song}:
		default:
		}
	}

	go listener.Run(m.ctx)

	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *Model) fetchQueue() tea.Cmd {
	return func() tea.Msg {
		state, err := m.api.Queue(m.ctx)
		return queueLoadedMsg{state: state, err: err}
	}
}

func (m *Model) fetchCurrent() tea.Cmd {
	return func() tea.Msg {
		current, err := m.api.Current(m.ctx)
		return currentLoadedMsg{current: current, err: err}
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.api.History(m.ctx, 25)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		songs, err := m.api.Search(m.ctx, query, 10)
		return searchResultsMsg{songs: songs, err: err}
	}
}

func (m *Model) addSong(song models.Song) tea.Cmd {
	return func() tea.Msg {
		_, err := m.api.Add(m.ctx, song, m.identity)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("added %s", song.SongName)}
	}
}

func (m *Model) removeSong(songID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.api.Remove(m.ctx, songID, m.identity); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "removed"}
	}
}

func (m *Model) shuffle() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.api.Shuffle(m.ctx, m.identity); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "shuffled"}
	}
}

func (m *Model) advance() tea.Cmd {
	return func() tea.Msg {
		entry, err := m.api.Next(m.ctx, m.identity)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("now playing %s", entry.Song.SongName)}
	}
}

func (m *Model) clearQueue() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.api.Clear(m.ctx, m.identity); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "queue cleared"}
	}
}

func (m *Model) togglePlayback() tea.Cmd {
	return func() tea.Msg {
		if m.controller == nil {
			return actionDoneMsg{err: fmt.Errorf("local playback is not available")}
		}
		if err := m.controller.TogglePlayback(m.ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "toggled playback"}
	}
}

func (m *Model) playLocal(song models.Song) tea.Cmd {
	return func() tea.Msg {
		if m.controller == nil {
			return actionDoneMsg{err: fmt.Errorf("local playback is not available")}
		}
		if err := m.controller.Play(song); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("playing %s", song.SongName)}
	}
}

func (m *Model) header() string {
	var nowPlaying string
	if m.current != nil {
		nowPlaying = fmt.Sprintf("♪ %s - %s (chosen by %s)",
			m.current.Song.Artist, m.current.Song.SongName, m.current.ChosenBy)
	} else {
		nowPlaying = "Nothing is playing"
	}

	line := styles.ok.Render(nowPlaying)
	if m.err != nil {
		line = fmt.Sprintf("%s\n%s", line, styles.err.Render(m.err.Error()))
	} else if m.status != "" {
		line = fmt.Sprintf("%s\n%s", line, styles.warn.Render(m.status))
	}
	return line
}

func (m *Model) renderQueue() string {
	footer := styles.help.Render(fmt.Sprintf("%d songs • %s • yours %d / crush %d",
		m.stats.TotalSongs, shared.FormatDuration(m.stats.TotalDuration),
		m.stats.AddedByYours, m.stats.AddedByCrush))

	helpKeys := []key.Binding{m.keys.add, m.keys.next, m.keys.shuffle, m.keys.history, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", m.header(), m.queueList.View(), footer, helpView)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Add Songs")

	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, m.searchInput.View(), m.resultList.View(), helpView)
}

func (m *Model) renderHistory() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Clear the whole queue?")
	info := fmt.Sprintf("\n%d songs will be removed. History is kept.\n", m.stats.TotalSongs)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
