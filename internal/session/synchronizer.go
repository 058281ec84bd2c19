// Package session owns the authenticated session and the per-user view
// state derived from the hosted backend: membership sets, admin roles, and
// the mirrored event/club catalogs. It is the single writer of that state;
// screens subscribe to snapshots and call its operations to cause changes.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/quadapp/quad/internal/domain"
)

const alertBuffer = 8

// Snapshot is the immutable view of synchronizer state published to
// subscribers. Membership sets are defensive copies; catalogs are replaced
// wholesale and never mutated in place.
type Snapshot struct {
	Session *domain.Session
	Loading bool

	IsAdmin        bool
	ManagedClubIDs domain.IDSet
	SavedEventIDs  domain.IDSet
	JoinedClubIDs  domain.IDSet
	RSVPdEventIDs  domain.IDSet

	Events []domain.Event
	Clubs  []domain.Club

	NotificationsVersion uint64
}

// Alert is a user-visible error surfaced by a refused or failed mutation
type Alert struct {
	Title   string
	Message string
}

// Synchronizer aggregates remote reads into derived client state and
// applies user mutations optimistically with rollback on failure.
type Synchronizer struct {
	events domain.EventRepository
	clubs  domain.ClubRepository
	auth   domain.AuthProvider
	push   domain.PushProvider
	cache  domain.CacheStore
	logger *slog.Logger

	mu           sync.RWMutex
	session      *domain.Session
	loading      bool
	saved        domain.IDSet
	joined       domain.IDSet
	rsvpd        domain.IDSet
	managed      domain.IDSet
	allEvents    []domain.Event
	allClubs     []domain.Club
	notifVersion uint64
	pushUser     string // user id the device is currently registered for

	subsMu    sync.Mutex
	subs      map[int]chan Snapshot
	nextSubID int

	alerts chan Alert
	keys   *keyMutex
}

// New creates a synchronizer. Catalogs are seeded from the cache store so
// screens have an offline view before the first network round-trip.
func New(events domain.EventRepository, clubs domain.ClubRepository, auth domain.AuthProvider, push domain.PushProvider, cache domain.CacheStore, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Synchronizer{
		events:  events,
		clubs:   clubs,
		auth:    auth,
		push:    push,
		cache:   cache,
		logger:  logger,
		saved:   domain.NewIDSet(),
		joined:  domain.NewIDSet(),
		rsvpd:   domain.NewIDSet(),
		managed: domain.NewIDSet(),
		subs:    make(map[int]chan Snapshot),
		alerts:  make(chan Alert, alertBuffer),
		keys:    newKeyMutex(),
	}

	if cache != nil {
		if cached, ok := cache.GetEvents(); ok {
			s.allEvents = cached
		}
		if cached, ok := cache.GetClubs(); ok {
			s.allClubs = cached
		}
	}

	return s
}

// Run consumes the auth-change and push-notification streams until ctx is
// cancelled or both streams close. It is the only goroutine that reacts to
// external events; all state transitions it makes are synchronous.
func (s *Synchronizer) Run(ctx context.Context) error {
	authCh := s.auth.Events()
	pushCh := s.push.Notifications()

	for authCh != nil || pushCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-authCh:
			if !ok {
				authCh = nil
				continue
			}
			s.handleAuthEvent(ctx, ev)

		case n, ok := <-pushCh:
			if !ok {
				pushCh = nil
				continue
			}
			s.handleNotification(n)
		}
	}
	return nil
}

// handleAuthEvent replaces the session and triggers a full data refresh
func (s *Synchronizer) handleAuthEvent(ctx context.Context, ev domain.AuthEvent) {
	s.logger.Info("auth state changed", "type", ev.Type.String())

	if s.cache != nil {
		if ev.Session != nil {
			if err := s.cache.SaveSession(ev.Session); err != nil {
				s.logger.Warn("failed to persist session", "error", err)
			}
		} else {
			if err := s.cache.ClearSession(); err != nil {
				s.logger.Warn("failed to clear persisted session", "error", err)
			}
		}
	}

	s.FetchAllUserData(ctx, ev.Session)
}

// handleNotification bumps the notifications version by exactly one. The
// counter only ever increases while the process runs.
func (s *Synchronizer) handleNotification(n domain.Notification) {
	s.mu.Lock()
	s.notifVersion++
	version := s.notifVersion
	s.mu.Unlock()

	s.logger.Debug("notification received", "id", n.ID, "version", version)
	s.publish()
}

// NotificationsVersion returns the current notification counter
func (s *Synchronizer) NotificationsVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifVersion
}

// Session returns the current session (nil when signed out). Callers must
// treat it as read-only.
func (s *Synchronizer) Session() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Snapshot returns the current state view
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	return Snapshot{
		Session:              s.session,
		Loading:              s.loading,
		IsAdmin:              s.managed.Len() > 0,
		ManagedClubIDs:       s.managed.Clone(),
		SavedEventIDs:        s.saved.Clone(),
		JoinedClubIDs:        s.joined.Clone(),
		RSVPdEventIDs:        s.rsvpd.Clone(),
		Events:               s.allEvents,
		Clubs:                s.allClubs,
		NotificationsVersion: s.notifVersion,
	}
}

// Subscribe registers a snapshot channel. The returned function removes the
// subscription. Slow subscribers are coalesced to the latest snapshot
// rather than blocking state transitions.
func (s *Synchronizer) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// publish sends the current snapshot to every subscriber, replacing any
// undelivered older snapshot
func (s *Synchronizer) publish() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Alerts is the stream of user-visible mutation errors
func (s *Synchronizer) Alerts() <-chan Alert {
	return s.alerts
}

// alert surfaces a user-visible error without blocking the caller
func (s *Synchronizer) alert(title, message string) {
	select {
	case s.alerts <- Alert{Title: title, Message: message}:
	default:
		s.logger.Warn("alert dropped", "title", title)
	}
}
