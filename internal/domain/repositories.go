package domain

import (
	"context"
)

// EventRepository provides access to the events table and the per-user
// saved-event and RSVP relation tables
type EventRepository interface {
	// GetEvents returns the full events catalog
	GetEvents(ctx context.Context) ([]Event, error)

	// GetSavedEventIDs returns the IDs of events the user has saved
	GetSavedEventIDs(ctx context.Context, userID string) ([]string, error)

	// SaveEvent inserts a (user, event) saved-event row
	SaveEvent(ctx context.Context, userID, eventID string) error

	// UnsaveEvent deletes the (user, event) saved-event row
	UnsaveEvent(ctx context.Context, userID, eventID string) error

	// GetRSVPdEventIDs returns the IDs of events the user has RSVP'd to
	GetRSVPdEventIDs(ctx context.Context, userID string) ([]string, error)

	// RSVP inserts a (user, event) RSVP row
	RSVP(ctx context.Context, userID, eventID string) error

	// CancelRSVP deletes the (user, event) RSVP row
	CancelRSVP(ctx context.Context, userID, eventID string) error
}

// ClubRepository provides access to the clubs table and the membership and
// admin relation tables
type ClubRepository interface {
	// GetClubs returns the full clubs catalog with member counts populated
	GetClubs(ctx context.Context) ([]Club, error)

	// GetJoinedClubIDs returns the IDs of clubs the user is a member of
	GetJoinedClubIDs(ctx context.Context, userID string) ([]string, error)

	// GetManagedClubIDs returns the IDs of clubs the user administers
	GetManagedClubIDs(ctx context.Context, userID string) ([]string, error)

	// JoinClub inserts a (user, club) membership row
	JoinClub(ctx context.Context, userID, clubID string) error

	// LeaveClub deletes the (user, club) membership row
	LeaveClub(ctx context.Context, userID, clubID string) error
}

// FeedRepository provides the composed social feed and post creation
type FeedRepository interface {
	// ComposeFeed returns the user's feed via the server-side composition RPC
	ComposeFeed(ctx context.Context, userID string, limit int) ([]Post, error)

	// CreatePost inserts a new post row
	CreatePost(ctx context.Context, post Post) error
}

// ProfileRepository provides access to user profile rows
type ProfileRepository interface {
	// GetProfile returns the profile row for a user
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// UpdateProfile updates the profile row for a user
	UpdateProfile(ctx context.Context, profile Profile) error
}

// ImageStore uploads images to the backend storage bucket
type ImageStore interface {
	// UploadImage stores data under path and returns the public URL
	UploadImage(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// AuthProvider owns credential exchange with the hosted auth service.
// Consumers observe session changes via the Events channel; the channel is
// closed when the provider shuts down.
type AuthProvider interface {
	// SignIn exchanges email/password for a session
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new user and returns the resulting session
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error)

	// SignOut revokes the current session
	SignOut(ctx context.Context) error

	// Restore validates a persisted session, refreshing it if expired,
	// and emits a signed-in event on success
	Restore(ctx context.Context, session *Session) (*Session, error)

	// UpdateUser updates the signed-in user's metadata on the auth service
	UpdateUser(ctx context.Context, metadata map[string]string) (*User, error)

	// Events is the inbound auth-state change stream
	Events() <-chan AuthEvent
}

// PushProvider owns device registration and the incoming notification
// stream. The provider owns its device token.
type PushProvider interface {
	// Register associates this device with the user
	Register(ctx context.Context, userID string) error

	// Notifications is the inbound push message stream
	Notifications() <-chan Notification
}

// CacheStore handles the local offline mirror (BoltDB + memory).
// Catalogs are stored wholesale; the session row enables app-launch
// restoration.
type CacheStore interface {
	GetEvents() ([]Event, bool)
	SaveEvents(events []Event) error

	GetClubs() ([]Club, bool)
	SaveClubs(clubs []Club) error

	GetSession() (*Session, bool)
	SaveSession(session *Session) error
	ClearSession() error

	InvalidateAll()
	Close() error
}
