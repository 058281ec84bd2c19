package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadapp/quad/internal/domain"
)

func TestFetchAllUserData_NilSessionClearsState(t *testing.T) {
	t.Parallel()
	s, events, clubs, _, _, _ := testSynchronizer()

	// Seed stale per-user state from a previous sign-in
	s.session = testSession("u1")
	s.saved = domain.NewIDSet("e1", "e2")
	s.joined = domain.NewIDSet("c1")
	s.rsvpd = domain.NewIDSet("e3")
	s.managed = domain.NewIDSet("c1")
	s.loading = true

	s.FetchAllUserData(context.Background(), nil)

	snap := s.Snapshot()
	assert.Nil(t, snap.Session)
	assert.False(t, snap.Loading)
	assert.False(t, snap.IsAdmin)
	assert.Equal(t, 0, snap.SavedEventIDs.Len())
	assert.Equal(t, 0, snap.JoinedClubIDs.Len())
	assert.Equal(t, 0, snap.RSVPdEventIDs.Len())
	assert.Equal(t, 0, snap.ManagedClubIDs.Len())

	// Logged-out clear is synchronous and makes no remote calls
	assert.Equal(t, 0, events.eventsCalls)
	assert.Equal(t, 0, clubs.clubsCalls)
}

func TestFetchAllUserData_PopulatesDerivedState(t *testing.T) {
	t.Parallel()
	s, events, clubs, _, push, cache := testSynchronizer()

	events.savedIDs = []string{"e1", "e2"}
	events.rsvpdIDs = []string{"e3"}
	events.events = []domain.Event{{ID: "e1", Title: "Hackathon"}}
	clubs.joinedIDs = []string{"c1", "c2"}
	clubs.managedIDs = []string{"c2"}
	clubs.clubs = []domain.Club{{ID: "c1", Name: "Chess Club", MemberCount: 12}}

	s.FetchAllUserData(context.Background(), testSession("u1"))

	snap := s.Snapshot()
	require.NotNil(t, snap.Session)
	assert.False(t, snap.Loading)
	assert.True(t, snap.IsAdmin)
	assert.True(t, snap.SavedEventIDs.Has("e1"))
	assert.True(t, snap.SavedEventIDs.Has("e2"))
	assert.True(t, snap.RSVPdEventIDs.Has("e3"))
	assert.True(t, snap.JoinedClubIDs.Has("c1"))
	assert.True(t, snap.ManagedClubIDs.Has("c2"))

	// Catalog refresh runs after the per-user queries
	assert.Len(t, snap.Events, 1)
	assert.Len(t, snap.Clubs, 1)

	// Fresh catalogs are mirrored to the offline store
	cached, ok := cache.GetEvents()
	require.True(t, ok)
	assert.Len(t, cached, 1)

	// Push registration is fire-and-forget, keyed by user id
	require.Eventually(t, func() bool {
		return len(push.registeredUsers()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"u1"}, push.registeredUsers())
}

func TestFetchAllUserData_PartialFailure(t *testing.T) {
	t.Parallel()
	s, events, clubs, _, _, _ := testSynchronizer()

	// The saved-events query fails; everything else succeeds
	events.savedErr = errors.New("boom")
	events.rsvpdIDs = []string{"e9"}
	clubs.joinedIDs = []string{"c1"}
	clubs.managedIDs = []string{"c1"}

	// Saved events retain their prior value
	s.saved = domain.NewIDSet("stale")

	s.FetchAllUserData(context.Background(), testSession("u1"))

	snap := s.Snapshot()
	assert.False(t, snap.Loading, "loading must clear even on partial failure")
	assert.True(t, snap.SavedEventIDs.Has("stale"), "failed query leaves previous value in place")
	assert.True(t, snap.RSVPdEventIDs.Has("e9"))
	assert.True(t, snap.JoinedClubIDs.Has("c1"))
	assert.True(t, snap.IsAdmin)
	assert.True(t, snap.ManagedClubIDs.Has("c1"))
}

func TestFetchAllUserData_RegistersPushOncePerUser(t *testing.T) {
	t.Parallel()
	s, _, _, _, push, _ := testSynchronizer()

	s.FetchAllUserData(context.Background(), testSession("u1"))
	s.FetchAllUserData(context.Background(), testSession("u1"))

	require.Eventually(t, func() bool {
		return len(push.registeredUsers()) == 1
	}, time.Second, 10*time.Millisecond)

	s.FetchAllUserData(context.Background(), testSession("u2"))
	require.Eventually(t, func() bool {
		return len(push.registeredUsers()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRefreshAllData_PartialFailure(t *testing.T) {
	t.Parallel()
	s, events, clubs, _, _, _ := testSynchronizer()

	events.eventsErr = errors.New("events down")
	clubs.clubs = []domain.Club{{ID: "c1", Name: "Robotics"}}

	s.allEvents = []domain.Event{{ID: "old"}}

	err := s.RefreshAllData(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Clubs, 1, "successful catalog still applied")
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "old", snap.Events[0].ID, "failed catalog keeps previous value")
}

func TestRefreshAllData_WorksSignedOut(t *testing.T) {
	t.Parallel()
	s, events, clubs, _, _, _ := testSynchronizer()

	events.events = []domain.Event{{ID: "e1"}}
	clubs.clubs = []domain.Club{{ID: "c1"}}

	require.NoError(t, s.RefreshAllData(context.Background()))

	snap := s.Snapshot()
	assert.Nil(t, snap.Session)
	assert.Len(t, snap.Events, 1)
	assert.Len(t, snap.Clubs, 1)
}

func TestNew_SeedsCatalogsFromCache(t *testing.T) {
	t.Parallel()
	events := &fakeEventRepo{}
	clubs := &fakeClubRepo{}
	cache := &fakeCache{
		events: []domain.Event{{ID: "e1"}},
		clubs:  []domain.Club{{ID: "c1"}},
	}
	s := New(events, clubs, newFakeAuth(), newFakePush(), cache, nil)

	snap := s.Snapshot()
	assert.Len(t, snap.Events, 1)
	assert.Len(t, snap.Clubs, 1)
	assert.Equal(t, 0, events.eventsCalls, "seeding must not hit the network")
}
