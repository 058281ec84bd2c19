package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quadapp/quad/internal/tui/styles"
)

// chromeHeight is the vertical space taken by tabs and the status bar
const chromeHeight = 4

var tabNames = [tabCount]string{"Events", "Clubs", "Feed"}

// View renders the application
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.tabBarView())
	b.WriteString("\n")

	switch {
	case m.alert != nil:
		b.WriteString(m.alertView())
	case m.searching:
		b.WriteString(m.searchView())
	default:
		switch m.tab {
		case TabEvents:
			b.WriteString(m.eventList.View())
		case TabClubs:
			b.WriteString(m.clubList.View())
		case TabFeed:
			b.WriteString(m.feedList.View())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.statusBarView())
	return b.String()
}

// tabBarView renders the tab strip with the notification badge
func (m Model) tabBarView() string {
	tabs := make([]string, 0, tabCount+1)
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, styles.TabStyle.Render(name))
		}
	}

	if pending := m.snap.NotificationsVersion - m.seenNotifVersion; pending > 0 {
		tabs = append(tabs, styles.BadgeStyle.Render(fmt.Sprintf("● %d", pending)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, tabs...)
}

// searchView renders the global search overlay
func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(styles.AccentStyle.Render("Search: "))
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if len(m.results) == 0 {
		b.WriteString(styles.DimStyle.Render("No matches"))
		return b.String()
	}

	max := len(m.results)
	if max > 15 {
		max = 15
	}
	for _, r := range m.results[:max] {
		kind := styles.DimStyle.Render(fmt.Sprintf("[%s]", r.Kind))
		b.WriteString(fmt.Sprintf("%s %s\n", kind, styles.TitleStyle.Render(r.Title)))
	}
	return b.String()
}

// alertView renders the blocking alert modal
func (m Model) alertView() string {
	body := fmt.Sprintf("%s\n\n%s\n\n%s",
		styles.ErrorStyle.Render(m.alert.Title),
		m.alert.Message,
		styles.DimStyle.Render("press esc to dismiss"),
	)
	box := styles.AlertBoxStyle.Render(body)
	return lipgloss.Place(m.width, m.height-chromeHeight, lipgloss.Center, lipgloss.Center, box)
}

// statusBarView renders the bottom status bar
func (m Model) statusBarView() string {
	left := "signed out"
	if sess := m.snap.Session; sess != nil {
		left = sess.User.Email
		if m.snap.IsAdmin {
			left += " · admin"
		}
	}
	if m.snap.Loading {
		left += " · syncing..."
	}

	right := fmt.Sprintf("%d events · %d clubs", len(m.snap.Events), len(m.snap.Clubs))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return styles.StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
