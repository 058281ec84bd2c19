package tui

import (
	"fmt"

	"github.com/quadapp/quad/internal/domain"
	"github.com/quadapp/quad/internal/session"
)

// eventItem adapts a domain.Event for the bubbles list
type eventItem struct {
	event domain.Event
	saved bool
	rsvpd bool
}

func (i eventItem) Title() string {
	title := i.event.Title
	if i.saved {
		title += " ★"
	}
	if i.rsvpd {
		title += " ✓"
	}
	return title
}

func (i eventItem) Description() string {
	desc := fmt.Sprintf("%s · %s", i.event.When(), i.event.Where())
	if i.event.RSVPCount > 0 {
		desc = fmt.Sprintf("%s · %d going", desc, i.event.RSVPCount)
	}
	return desc
}

func (i eventItem) FilterValue() string { return i.event.Title }

// clubItem adapts a domain.Club for the bubbles list
type clubItem struct {
	club    domain.Club
	joined  bool
	managed bool
}

func (i clubItem) Title() string {
	title := i.club.Name
	if i.managed {
		title += " (admin)"
	} else if i.joined {
		title += " ✓"
	}
	return title
}

func (i clubItem) Description() string {
	return fmt.Sprintf("%s · %d members", i.club.Category, i.club.MemberCount)
}

func (i clubItem) FilterValue() string { return i.club.Name }

// postItem adapts a domain.Post for the bubbles list
type postItem struct {
	post domain.Post
}

func (i postItem) Title() string {
	return i.post.AuthorName
}

func (i postItem) Description() string {
	return i.post.Body
}

func (i postItem) FilterValue() string { return i.post.Body }

// eventListItems builds list rows from a snapshot's events catalog
func eventListItems(snap session.Snapshot) []eventItem {
	items := make([]eventItem, 0, len(snap.Events))
	for _, e := range snap.Events {
		items = append(items, eventItem{
			event: e,
			saved: snap.SavedEventIDs.Has(e.ID),
			rsvpd: snap.RSVPdEventIDs.Has(e.ID),
		})
	}
	return items
}

// clubListItems builds list rows from a snapshot's clubs catalog
func clubListItems(snap session.Snapshot) []clubItem {
	items := make([]clubItem, 0, len(snap.Clubs))
	for _, c := range snap.Clubs {
		items = append(items, clubItem{
			club:    c,
			joined:  snap.JoinedClubIDs.Has(c.ID),
			managed: snap.ManagedClubIDs.Has(c.ID),
		})
	}
	return items
}
