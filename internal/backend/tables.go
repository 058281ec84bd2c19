package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/quadapp/quad/internal/domain"
)

// eventRow is the wire shape of an events table row
type eventRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ClubID      string    `json:"club_id"`
	ClubName    string    `json:"club_name"`
	Location    string    `json:"location"`
	Room        string    `json:"room"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	ImageURL    string    `json:"image_url"`
	RSVPCount   int       `json:"rsvp_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r eventRow) toDomain() domain.Event {
	return domain.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ClubID:      r.ClubID,
		ClubName:    r.ClubName,
		Location:    r.Location,
		Room:        r.Room,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		ImageURL:    r.ImageURL,
		RSVPCount:   r.RSVPCount,
		CreatedAt:   r.CreatedAt,
	}
}

// clubRow is the wire shape of a clubs table row. The member count arrives
// as an embedded aggregate from the membership table.
type clubRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	Members     []struct {
		Count int `json:"count"`
	} `json:"club_members"`
}

func (r clubRow) toDomain() domain.Club {
	count := 0
	if len(r.Members) > 0 {
		count = r.Members[0].Count
	}
	return domain.Club{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		MemberCount: count,
		CreatedAt:   r.CreatedAt,
	}
}

// pairRow is the wire shape of a (user_id, entity_id) relation row
type pairRow struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id,omitempty"`
	ClubID  string `json:"club_id,omitempty"`
}

// GetEvents returns the full events catalog ordered by start time
func (c *Client) GetEvents(ctx context.Context) ([]domain.Event, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "starts_at.asc")

	var rows []eventRow
	if err := c.doRequest(ctx, http.MethodGet, "/rest/v1/events", query, nil, &rows); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toDomain())
	}
	return events, nil
}

// GetClubs returns the full clubs catalog with member counts populated
func (c *Client) GetClubs(ctx context.Context) ([]domain.Club, error) {
	query := url.Values{}
	query.Set("select", "*,club_members(count)")
	query.Set("order", "name.asc")

	var rows []clubRow
	if err := c.doRequest(ctx, http.MethodGet, "/rest/v1/clubs", query, nil, &rows); err != nil {
		return nil, err
	}

	clubs := make([]domain.Club, 0, len(rows))
	for _, r := range rows {
		clubs = append(clubs, r.toDomain())
	}
	return clubs, nil
}

// getRelationIDs reads a (user_id, entity_id) relation table scoped to one
// user and returns the entity IDs
func (c *Client) getRelationIDs(ctx context.Context, table, idColumn, userID string) ([]string, error) {
	query := url.Values{}
	query.Set("select", idColumn)
	query.Set("user_id", "eq."+userID)

	var rows []map[string]string
	if err := c.doRequest(ctx, http.MethodGet, "/rest/v1/"+table, query, nil, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := row[idColumn]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// deleteRelation removes the row matching the (user_id, entity_id) pair key
func (c *Client) deleteRelation(ctx context.Context, table, idColumn, userID, entityID string) error {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set(idColumn, "eq."+entityID)
	return c.doRequest(ctx, http.MethodDelete, "/rest/v1/"+table, query, nil, nil)
}

// GetSavedEventIDs returns the IDs of events the user has saved
func (c *Client) GetSavedEventIDs(ctx context.Context, userID string) ([]string, error) {
	return c.getRelationIDs(ctx, "saved_events", "event_id", userID)
}

// SaveEvent inserts a (user, event) saved-event row
func (c *Client) SaveEvent(ctx context.Context, userID, eventID string) error {
	return c.doRequest(ctx, http.MethodPost, "/rest/v1/saved_events", nil,
		pairRow{UserID: userID, EventID: eventID}, nil)
}

// UnsaveEvent deletes the (user, event) saved-event row
func (c *Client) UnsaveEvent(ctx context.Context, userID, eventID string) error {
	return c.deleteRelation(ctx, "saved_events", "event_id", userID, eventID)
}

// GetRSVPdEventIDs returns the IDs of events the user has RSVP'd to
func (c *Client) GetRSVPdEventIDs(ctx context.Context, userID string) ([]string, error) {
	return c.getRelationIDs(ctx, "event_rsvps", "event_id", userID)
}

// RSVP inserts a (user, event) RSVP row
func (c *Client) RSVP(ctx context.Context, userID, eventID string) error {
	return c.doRequest(ctx, http.MethodPost, "/rest/v1/event_rsvps", nil,
		pairRow{UserID: userID, EventID: eventID}, nil)
}

// CancelRSVP deletes the (user, event) RSVP row
func (c *Client) CancelRSVP(ctx context.Context, userID, eventID string) error {
	return c.deleteRelation(ctx, "event_rsvps", "event_id", userID, eventID)
}

// GetJoinedClubIDs returns the IDs of clubs the user is a member of
func (c *Client) GetJoinedClubIDs(ctx context.Context, userID string) ([]string, error) {
	return c.getRelationIDs(ctx, "club_members", "club_id", userID)
}

// GetManagedClubIDs returns the IDs of clubs the user administers
func (c *Client) GetManagedClubIDs(ctx context.Context, userID string) ([]string, error) {
	return c.getRelationIDs(ctx, "club_admins", "club_id", userID)
}

// JoinClub inserts a (user, club) membership row
func (c *Client) JoinClub(ctx context.Context, userID, clubID string) error {
	return c.doRequest(ctx, http.MethodPost, "/rest/v1/club_members", nil,
		pairRow{UserID: userID, ClubID: clubID}, nil)
}

// LeaveClub deletes the (user, club) membership row
func (c *Client) LeaveClub(ctx context.Context, userID, clubID string) error {
	return c.deleteRelation(ctx, "club_members", "club_id", userID, clubID)
}

// profileRow is the wire shape of a profiles table row
type profileRow struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Major     string `json:"major"`
	GradYear  int    `json:"grad_year"`
}

// GetProfile returns the profile row for a user
func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("id", "eq."+userID)

	var rows []profileRow
	if err := c.doRequest(ctx, http.MethodGet, "/rest/v1/profiles", query, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	r := rows[0]
	return &domain.Profile{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		AvatarURL: r.AvatarURL,
		Major:     r.Major,
		GradYear:  r.GradYear,
	}, nil
}

// UpdateProfile updates the profile row for a user
func (c *Client) UpdateProfile(ctx context.Context, profile domain.Profile) error {
	query := url.Values{}
	query.Set("id", "eq."+profile.ID)

	row := profileRow{
		ID:        profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		Major:     profile.Major,
		GradYear:  profile.GradYear,
	}
	return c.doRequest(ctx, http.MethodPatch, "/rest/v1/profiles", query, row, nil)
}
