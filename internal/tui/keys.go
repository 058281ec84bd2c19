package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the application key bindings
type keyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Save    key.Binding
	RSVP    key.Binding
	Join    key.Binding
	Refresh key.Binding
	Search  key.Binding
	Dismiss key.Binding
	SignOut key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save event"),
		),
		RSVP: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rsvp"),
		),
		Join: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "join/leave club"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "sign out"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
