package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quadapp/quad/internal/domain"
	"github.com/quadapp/quad/internal/service"
	"github.com/quadapp/quad/internal/session"
)

// Tab identifies the active view
type Tab int

const (
	TabEvents Tab = iota
	TabClubs
	TabFeed
)

const tabCount = 3

// Model is the root TUI model. It is a leaf consumer of the synchronizer:
// it renders snapshots and invokes synchronizer operations, never mutating
// shared state directly.
type Model struct {
	syncer *session.Synchronizer
	auth   domain.AuthProvider
	feed   *service.FeedService
	filter *service.FilterService

	snapshots   <-chan session.Snapshot
	unsubscribe func()

	keys keyMap
	tab  Tab

	eventList list.Model
	clubList  list.Model
	feedList  list.Model

	snap      session.Snapshot
	feedLimit int

	searching   bool
	searchInput textinput.Model
	results     []service.FilterResult

	alert *session.Alert

	// Version already reflected in the feed view; a newer snapshot version
	// shows the notification badge until the next refresh
	seenNotifVersion uint64

	width  int
	height int
}

// New creates the root model
func New(syncer *session.Synchronizer, auth domain.AuthProvider, feed *service.FeedService, filter *service.FilterService, feedLimit int) Model {
	delegate := list.NewDefaultDelegate()

	eventList := list.New(nil, delegate, 0, 0)
	eventList.Title = "Events"
	eventList.SetShowHelp(false)

	clubList := list.New(nil, delegate, 0, 0)
	clubList.Title = "Clubs"
	clubList.SetShowHelp(false)

	feedList := list.New(nil, delegate, 0, 0)
	feedList.Title = "Feed"
	feedList.SetShowHelp(false)

	searchInput := textinput.New()
	searchInput.Placeholder = "Search events and clubs"

	snapshots, unsubscribe := syncer.Subscribe()

	return Model{
		syncer:      syncer,
		auth:        auth,
		feed:        feed,
		filter:      filter,
		snapshots:   snapshots,
		unsubscribe: unsubscribe,
		keys:        defaultKeyMap(),
		eventList:   eventList,
		clubList:    clubList,
		feedList:    feedList,
		snap:        syncer.Snapshot(),
		feedLimit:   feedLimit,
		searchInput: searchInput,
	}
}

// Init starts the snapshot and alert listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForSnapshot(),
		m.waitForAlert(),
		m.loadFeed(),
	)
}

// waitForSnapshot blocks on the subscription channel
func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.snapshots
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// waitForAlert blocks on the alert channel
func (m Model) waitForAlert() tea.Cmd {
	alerts := m.syncer.Alerts()
	return func() tea.Msg {
		alert, ok := <-alerts
		if !ok {
			return nil
		}
		return AlertMsg{Alert: alert}
	}
}

// loadFeed fetches the composed feed for the signed-in user
func (m Model) loadFeed() tea.Cmd {
	sess := m.snap.Session
	if sess == nil {
		return nil
	}
	userID := sess.User.ID
	limit := m.feedLimit
	return func() tea.Msg {
		posts, err := m.feed.GetFeed(context.Background(), userID, limit)
		return FeedLoadedMsg{Posts: posts, Err: err}
	}
}

// refreshCatalogs triggers a manual pull-to-refresh
func (m Model) refreshCatalogs() tea.Cmd {
	return func() tea.Msg {
		return RefreshDoneMsg{Err: m.syncer.RefreshAllData(context.Background())}
	}
}

// signOut revokes the session; the synchronizer clears state when the
// signed-out event lands
func (m Model) signOut() tea.Cmd {
	return func() tea.Msg {
		_ = m.auth.SignOut(context.Background())
		return SignedOutMsg{}
	}
}

// toggleCmd runs a synchronizer toggle off the UI loop. Errors are already
// surfaced through the alert channel, so the result is discarded.
func toggleCmd(toggle func(context.Context, string) error, id string) tea.Cmd {
	return func() tea.Msg {
		_ = toggle(context.Background(), id)
		return nil
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - chromeHeight
		m.eventList.SetSize(m.width, listHeight)
		m.clubList.SetSize(m.width, listHeight)
		m.feedList.SetSize(m.width, listHeight)
		return m, nil

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, m.waitForSnapshot()

	case AlertMsg:
		alert := msg.Alert
		m.alert = &alert
		return m, m.waitForAlert()

	case FeedLoadedMsg:
		if msg.Err == nil {
			items := make([]list.Item, 0, len(msg.Posts))
			for _, p := range msg.Posts {
				items = append(items, postItem{post: p})
			}
			m.feedList.SetItems(items)
			m.seenNotifVersion = m.snap.NotificationsVersion
		}
		return m, nil

	case RefreshDoneMsg:
		return m, nil

	case SignedOutMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applySnapshot refreshes all derived view state from a new snapshot
func (m *Model) applySnapshot(snap session.Snapshot) {
	m.snap = snap

	eventItems := eventListItems(snap)
	rows := make([]list.Item, len(eventItems))
	for i, it := range eventItems {
		rows[i] = it
	}
	m.eventList.SetItems(rows)

	clubItems := clubListItems(snap)
	rows = make([]list.Item, len(clubItems))
	for i, it := range clubItems {
		rows[i] = it
	}
	m.clubList.SetItems(rows)

	m.filter.Reindex(snap.Events, snap.Clubs)
}

// handleKey routes key presses
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Alert modal swallows input until dismissed
	if m.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) || msg.String() == "enter" {
			m.alert = nil
		}
		return m, nil
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unsubscribe()
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		if m.tab == TabFeed {
			return m, m.loadFeed()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCatalogs()

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue("")
		m.results = nil
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.SignOut):
		return m, m.signOut()

	case key.Matches(msg, m.keys.Save):
		if m.tab == TabEvents {
			if it, ok := m.eventList.SelectedItem().(eventItem); ok {
				return m, toggleCmd(m.syncer.ToggleSavedEvent, it.event.ID)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.RSVP):
		if m.tab == TabEvents {
			if it, ok := m.eventList.SelectedItem().(eventItem); ok {
				return m, toggleCmd(m.syncer.ToggleRSVP, it.event.ID)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Join):
		if m.tab == TabClubs {
			if it, ok := m.clubList.SelectedItem().(clubItem); ok {
				return m, toggleCmd(m.syncer.ToggleJoinedClub, it.club.ID)
			}
		}
		return m, nil
	}

	// Delegate navigation to the active list
	var cmd tea.Cmd
	switch m.tab {
	case TabEvents:
		m.eventList, cmd = m.eventList.Update(msg)
	case TabClubs:
		m.clubList, cmd = m.clubList.Update(msg)
	case TabFeed:
		m.feedList, cmd = m.feedList.Update(msg)
	}
	return m, cmd
}

// handleSearchKey routes input while the search overlay is open
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Dismiss) {
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.results = m.filter.Filter(m.searchInput.Value())
	return m, cmd
}
