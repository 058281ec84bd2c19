package domain

import (
	"fmt"
	"time"
)

// Event represents a campus event hosted by a club or department
type Event struct {
	ID          string    // Server-assigned unique identifier
	Title       string    // Display title
	Description string    // Event description
	ClubID      string    // Hosting club ID (empty for campus-wide events)
	ClubName    string    // Hosting club name (denormalized for display)
	Location    string    // Building / venue name
	Room        string    // Room within the venue
	StartsAt    time.Time // Event start
	EndsAt      time.Time // Event end
	ImageURL    string    // Header image URL
	RSVPCount   int       // Number of RSVPs (server aggregate)
	CreatedAt   time.Time // Row creation time
}

// IsUpcoming reports whether the event has not started yet
func (e Event) IsUpcoming() bool {
	return e.StartsAt.After(time.Now())
}

// IsLive reports whether the event is currently in progress
func (e Event) IsLive() bool {
	now := time.Now()
	return !e.StartsAt.After(now) && e.EndsAt.After(now)
}

// When returns a human-readable schedule string (e.g., "Mon Sep 1, 6:00 PM")
func (e Event) When() string {
	return e.StartsAt.Format("Mon Jan 2, 3:04 PM")
}

// Where returns the combined location string ("Student Union, Room 204")
func (e Event) Where() string {
	if e.Room == "" {
		return e.Location
	}
	if e.Location == "" {
		return e.Room
	}
	return fmt.Sprintf("%s, %s", e.Location, e.Room)
}

// Club represents a student club or organization
type Club struct {
	ID          string    // Server-assigned unique identifier
	Name        string    // Display name
	Category    string    // e.g., "Academic", "Sports", "Arts"
	Description string    // Club description
	ImageURL    string    // Logo image URL
	MemberCount int       // Derived from the membership aggregate at fetch time
	CreatedAt   time.Time // Row creation time
}

// Post represents a social feed entry
type Post struct {
	ID         string    // Client-generated unique identifier
	AuthorID   string    // Posting user ID
	AuthorName string    // Posting user display name (denormalized)
	ClubID     string    // Club the post belongs to (empty for campus feed)
	Body       string    // Post text
	ImageURL   string    // Optional attached image URL
	CreatedAt  time.Time // Post time
}

// Profile represents a user's public profile row
type Profile struct {
	ID        string // Matches the auth user ID
	Email     string
	FullName  string
	AvatarURL string
	Major     string
	GradYear  int
}

// DisplayName returns the best available name for display
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// Notification is a push message delivered to the signed-in user
type Notification struct {
	ID        string
	Title     string
	Body      string
	EventID   string // Optional: event the notification refers to
	ClubID    string // Optional: club the notification refers to
	CreatedAt time.Time
}
