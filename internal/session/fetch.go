package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/quadapp/quad/internal/domain"
)

const pushRegisterTimeout = 15 * time.Second

// fetchResult carries one per-user query's outcome through the fan-in
type fetchResult struct {
	ids []string
	err error
}

// FetchAllUserData replaces the session and rebuilds all per-user derived
// state from the backend.
//
// With no authenticated user it clears the membership sets and admin roles
// synchronously, so screens never render stale per-user data for a
// logged-out state. With a user it issues the four per-user queries
// concurrently and applies each result independently: one failed query
// never blocks the others. The catalog refresh always runs afterwards and
// the loading flag always clears, regardless of per-query outcomes.
func (s *Synchronizer) FetchAllUserData(ctx context.Context, sess *domain.Session) {
	s.mu.Lock()
	s.session = sess
	if sess == nil {
		s.saved = domain.NewIDSet()
		s.joined = domain.NewIDSet()
		s.rsvpd = domain.NewIDSet()
		s.managed = domain.NewIDSet()
		s.loading = false
		s.mu.Unlock()
		s.publish()
		return
	}
	s.loading = true
	s.mu.Unlock()
	s.publish()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.publish()
	}()

	userID := sess.User.ID

	var managed, saved, rsvpd, joined fetchResult
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		managed.ids, managed.err = s.clubs.GetManagedClubIDs(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		saved.ids, saved.err = s.events.GetSavedEventIDs(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		rsvpd.ids, rsvpd.err = s.events.GetRSVPdEventIDs(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		joined.ids, joined.err = s.clubs.GetJoinedClubIDs(ctx, userID)
	}()
	wg.Wait()

	// Apply each result only if its query succeeded; failures leave the
	// previous value in place
	s.mu.Lock()
	if managed.err == nil {
		s.managed = domain.NewIDSet(managed.ids...)
	} else {
		s.logger.Error("failed to fetch managed clubs", "error", managed.err, "user_id", userID)
	}
	if saved.err == nil {
		s.saved = domain.NewIDSet(saved.ids...)
	} else {
		s.logger.Error("failed to fetch saved events", "error", saved.err, "user_id", userID)
	}
	if rsvpd.err == nil {
		s.rsvpd = domain.NewIDSet(rsvpd.ids...)
	} else {
		s.logger.Error("failed to fetch RSVPs", "error", rsvpd.err, "user_id", userID)
	}
	if joined.err == nil {
		s.joined = domain.NewIDSet(joined.ids...)
	} else {
		s.logger.Error("failed to fetch club memberships", "error", joined.err, "user_id", userID)
	}
	s.mu.Unlock()
	s.publish()

	s.registerPush(userID)

	if err := s.RefreshAllData(ctx); err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
	}
}

// RefreshAllData refetches both catalogs wholesale. It is callable in any
// auth state (pull-to-refresh works signed out) and tolerates partial
// failure: a successful catalog is applied even when the other one errors.
func (s *Synchronizer) RefreshAllData(ctx context.Context) error {
	var (
		events []domain.Event
		clubs  []domain.Club
		eventsErr,
		clubsErr error
		wg sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		events, eventsErr = s.events.GetEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		clubs, clubsErr = s.clubs.GetClubs(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	if eventsErr == nil {
		s.allEvents = events
	} else {
		s.logger.Error("failed to fetch events catalog", "error", eventsErr)
	}
	if clubsErr == nil {
		s.allClubs = clubs
	} else {
		s.logger.Error("failed to fetch clubs catalog", "error", clubsErr)
	}
	s.mu.Unlock()
	s.publish()

	// Mirror fresh catalogs to the offline store
	if s.cache != nil {
		if eventsErr == nil {
			if err := s.cache.SaveEvents(events); err != nil {
				s.logger.Warn("failed to cache events", "error", err)
			}
		}
		if clubsErr == nil {
			if err := s.cache.SaveClubs(clubs); err != nil {
				s.logger.Warn("failed to cache clubs", "error", err)
			}
		}
	}

	return errors.Join(eventsErr, clubsErr)
}

// registerPush registers the device for the user's notifications once per
// signed-in user, as a fire-and-forget side effect. Failures are logged and
// never block the data flow.
func (s *Synchronizer) registerPush(userID string) {
	if s.push == nil {
		return
	}

	s.mu.Lock()
	if s.pushUser == userID {
		s.mu.Unlock()
		return
	}
	s.pushUser = userID
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushRegisterTimeout)
		defer cancel()
		if err := s.push.Register(ctx, userID); err != nil {
			s.logger.Warn("push registration failed", "error", err, "user_id", userID)
		}
	}()
}
