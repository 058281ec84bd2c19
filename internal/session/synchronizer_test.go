package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadapp/quad/internal/domain"
)

func TestRun_AuthEventsDriveSessionLifecycle(t *testing.T) {
	t.Parallel()
	s, events, clubs, auth, _, cache := testSynchronizer()

	events.savedIDs = []string{"e1"}
	clubs.joinedIDs = []string{"c1"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Sign-in replaces the session and triggers the full fetch
	auth.events <- domain.AuthEvent{Type: domain.AuthSignedIn, Session: testSession("u1")}
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Session != nil && snap.SavedEventIDs.Has("e1") && snap.JoinedClubIDs.Has("c1")
	}, time.Second, 10*time.Millisecond)

	// Session is persisted for app-launch restoration
	persisted, ok := cache.GetSession()
	require.True(t, ok)
	assert.Equal(t, "u1", persisted.User.ID)

	// Sign-out clears session and all derived state atomically
	auth.events <- domain.AuthEvent{Type: domain.AuthSignedOut}
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Session == nil &&
			snap.SavedEventIDs.Len() == 0 &&
			snap.JoinedClubIDs.Len() == 0 &&
			!snap.IsAdmin
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, cache.sessionCleared())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_NotificationsBumpVersionByOne(t *testing.T) {
	t.Parallel()
	s, _, _, _, push, _ := testSynchronizer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Equal(t, uint64(0), s.NotificationsVersion())

	// Two back-to-back notifications yield two increments, not one
	push.notifications <- domain.Notification{ID: "n1"}
	push.notifications <- domain.Notification{ID: "n2"}

	require.Eventually(t, func() bool {
		return s.NotificationsVersion() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRun_ReturnsWhenStreamsClose(t *testing.T) {
	t.Parallel()
	s, _, _, auth, push, _ := testSynchronizer()

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	close(auth.events)
	close(push.notifications)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after both streams closed")
	}
}

func TestSubscribe_DeliversSnapshotsAndCoalesces(t *testing.T) {
	t.Parallel()
	s, _, _, _, _, _ := testSynchronizer()
	s.session = testSession("u1")

	snapshots, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// Multiple publishes without a read coalesce to the latest state
	require.NoError(t, s.ToggleSavedEvent(context.Background(), "e1"))
	require.NoError(t, s.ToggleSavedEvent(context.Background(), "e2"))

	snap := <-snapshots
	assert.True(t, snap.SavedEventIDs.Has("e1"))
	assert.True(t, snap.SavedEventIDs.Has("e2"))
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	s, _, _, _, _, _ := testSynchronizer()
	s.session = testSession("u1")

	snapshots, unsubscribe := s.Subscribe()
	unsubscribe()

	require.NoError(t, s.ToggleSavedEvent(context.Background(), "e1"))

	select {
	case <-snapshots:
		t.Fatal("unsubscribed channel should receive nothing")
	default:
	}
}

func TestSnapshot_SetsAreDefensiveCopies(t *testing.T) {
	t.Parallel()
	s, _, _, _, _, _ := testSynchronizer()
	s.saved = domain.NewIDSet("e1")

	snap := s.Snapshot()
	snap.SavedEventIDs.Add("e2")

	assert.False(t, s.Snapshot().SavedEventIDs.Has("e2"), "mutating a snapshot must not affect synchronizer state")
}
