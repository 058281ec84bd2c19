package session

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/quadapp/quad/internal/domain"
)

// fakeEventRepo records relation mutations and serves canned reads
type fakeEventRepo struct {
	mu sync.Mutex

	events    []domain.Event
	eventsErr error

	savedIDs []string
	savedErr error
	rsvpdIDs []string
	rsvpdErr error

	saveCalls   []string
	unsaveCalls []string
	rsvpCalls   []string
	cancelCalls []string

	saveErr   error
	unsaveErr error
	rsvpErr   error
	cancelErr error

	// Optional per-call overrides, invoked outside the fake's mutex so a
	// blocked call does not stall concurrent calls on other ids
	saveFn   func(eventID string) error
	unsaveFn func(eventID string) error

	eventsCalls int
}

var _ domain.EventRepository = (*fakeEventRepo)(nil)

func (f *fakeEventRepo) GetEvents(context.Context) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventsCalls++
	return append([]domain.Event(nil), f.events...), f.eventsErr
}

func (f *fakeEventRepo) GetSavedEventIDs(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.savedIDs...), f.savedErr
}

func (f *fakeEventRepo) GetRSVPdEventIDs(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rsvpdIDs...), f.rsvpdErr
}

func (f *fakeEventRepo) SaveEvent(_ context.Context, _, eventID string) error {
	f.mu.Lock()
	f.saveCalls = append(f.saveCalls, eventID)
	fn, err := f.saveFn, f.saveErr
	f.mu.Unlock()
	if fn != nil {
		return fn(eventID)
	}
	return err
}

func (f *fakeEventRepo) UnsaveEvent(_ context.Context, _, eventID string) error {
	f.mu.Lock()
	f.unsaveCalls = append(f.unsaveCalls, eventID)
	fn, err := f.unsaveFn, f.unsaveErr
	f.mu.Unlock()
	if fn != nil {
		return fn(eventID)
	}
	return err
}

func (f *fakeEventRepo) RSVP(_ context.Context, _, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rsvpCalls = append(f.rsvpCalls, eventID)
	return f.rsvpErr
}

func (f *fakeEventRepo) CancelRSVP(_ context.Context, _, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, eventID)
	return f.cancelErr
}

func (f *fakeEventRepo) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saveCalls) + len(f.unsaveCalls) + len(f.rsvpCalls) + len(f.cancelCalls)
}

// fakeClubRepo records membership mutations and serves canned reads
type fakeClubRepo struct {
	mu sync.Mutex

	clubs    []domain.Club
	clubsErr error

	joinedIDs  []string
	joinedErr  error
	managedIDs []string
	managedErr error

	joinCalls  []string
	leaveCalls []string
	joinErr    error
	leaveErr   error

	clubsCalls int
}

var _ domain.ClubRepository = (*fakeClubRepo)(nil)

func (f *fakeClubRepo) GetClubs(context.Context) ([]domain.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clubsCalls++
	return append([]domain.Club(nil), f.clubs...), f.clubsErr
}

func (f *fakeClubRepo) GetJoinedClubIDs(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.joinedIDs...), f.joinedErr
}

func (f *fakeClubRepo) GetManagedClubIDs(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.managedIDs...), f.managedErr
}

func (f *fakeClubRepo) JoinClub(_ context.Context, _, clubID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls = append(f.joinCalls, clubID)
	return f.joinErr
}

func (f *fakeClubRepo) LeaveClub(_ context.Context, _, clubID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveCalls = append(f.leaveCalls, clubID)
	return f.leaveErr
}

func (f *fakeClubRepo) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.joinCalls) + len(f.leaveCalls)
}

// fakeAuth only supplies the event stream; credential exchange is not
// exercised by synchronizer tests
type fakeAuth struct {
	events chan domain.AuthEvent
}

var _ domain.AuthProvider = (*fakeAuth)(nil)

func newFakeAuth() *fakeAuth {
	return &fakeAuth{events: make(chan domain.AuthEvent, 4)}
}

func (f *fakeAuth) SignIn(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (f *fakeAuth) SignUp(context.Context, string, string, map[string]string) (*domain.Session, error) {
	return nil, nil
}

func (f *fakeAuth) SignOut(context.Context) error { return nil }

func (f *fakeAuth) Restore(_ context.Context, s *domain.Session) (*domain.Session, error) {
	return s, nil
}

func (f *fakeAuth) UpdateUser(context.Context, map[string]string) (*domain.User, error) {
	return nil, nil
}

func (f *fakeAuth) Events() <-chan domain.AuthEvent { return f.events }

// fakePush records registrations and supplies the notification stream
type fakePush struct {
	mu            sync.Mutex
	registered    []string
	registerErr   error
	notifications chan domain.Notification
}

var _ domain.PushProvider = (*fakePush)(nil)

func newFakePush() *fakePush {
	return &fakePush{notifications: make(chan domain.Notification, 4)}
}

func (f *fakePush) Register(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, userID)
	return f.registerErr
}

func (f *fakePush) Notifications() <-chan domain.Notification { return f.notifications }

func (f *fakePush) registeredUsers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.registered...)
}

// fakeCache is an in-memory domain.CacheStore
type fakeCache struct {
	mu sync.Mutex

	events []domain.Event
	clubs  []domain.Club
	sess   *domain.Session

	savedEvents  int
	savedClubs   int
	clearedSess  int
	invalidated  int
}

var _ domain.CacheStore = (*fakeCache)(nil)

func (f *fakeCache) GetEvents() ([]domain.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, f.events != nil
}

func (f *fakeCache) SaveEvents(events []domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
	f.savedEvents++
	return nil
}

func (f *fakeCache) GetClubs() ([]domain.Club, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clubs, f.clubs != nil
}

func (f *fakeCache) SaveClubs(clubs []domain.Club) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clubs = clubs
	f.savedClubs++
	return nil
}

func (f *fakeCache) GetSession() (*domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess, f.sess != nil
}

func (f *fakeCache) SaveSession(sess *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = sess
	return nil
}

func (f *fakeCache) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = nil
	f.clearedSess++
	return nil
}

func (f *fakeCache) InvalidateAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func (f *fakeCache) Close() error { return nil }

func (f *fakeCache) sessionCleared() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearedSess
}

// testSynchronizer wires a synchronizer with fresh fakes
func testSynchronizer() (*Synchronizer, *fakeEventRepo, *fakeClubRepo, *fakeAuth, *fakePush, *fakeCache) {
	events := &fakeEventRepo{}
	clubs := &fakeClubRepo{}
	auth := newFakeAuth()
	push := newFakePush()
	cache := &fakeCache{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(events, clubs, auth, push, cache, logger)
	return s, events, clubs, auth, push, cache
}

// testSession builds a signed-in session for user id
func testSession(userID string) *domain.Session {
	return &domain.Session{
		AccessToken:  "token-" + userID,
		RefreshToken: "refresh-" + userID,
		User: domain.User{
			ID:    userID,
			Email: userID + "@campus.edu",
		},
	}
}
