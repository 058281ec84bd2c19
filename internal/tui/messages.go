package tui

import (
	"github.com/quadapp/quad/internal/domain"
	"github.com/quadapp/quad/internal/session"
)

// Message types for the TUI

// SnapshotMsg carries a new state snapshot from the synchronizer
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// AlertMsg carries a user-visible mutation error
type AlertMsg struct {
	Alert session.Alert
}

// FeedLoadedMsg signals that the social feed has been loaded
type FeedLoadedMsg struct {
	Posts []domain.Post
	Err   error
}

// RefreshDoneMsg signals that a manual catalog refresh finished
type RefreshDoneMsg struct {
	Err error
}

// SignedOutMsg signals that sign-out completed
type SignedOutMsg struct{}
