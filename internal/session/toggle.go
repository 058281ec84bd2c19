package session

import (
	"context"
	"fmt"

	"github.com/quadapp/quad/internal/domain"
)

// remoteCall mutates one (user, entity) relation row on the backend
type remoteCall func(ctx context.Context, userID, entityID string) error

// toggleSpec parameterizes the optimistic-toggle protocol over one
// membership set and its insert/delete remote calls
type toggleSpec struct {
	name    string // lock-key prefix, also used in logs
	noun    string // alert wording ("save event", "join club", ...)
	current func(s *Synchronizer) domain.IDSet
	assign  func(s *Synchronizer, set domain.IDSet)
	insert  remoteCall
	remove  remoteCall
}

// ToggleSavedEvent saves or unsaves an event for the signed-in user
func (s *Synchronizer) ToggleSavedEvent(ctx context.Context, eventID string) error {
	return s.toggle(ctx, toggleSpec{
		name:    "saved_event",
		noun:    "save event",
		current: func(s *Synchronizer) domain.IDSet { return s.saved },
		assign:  func(s *Synchronizer, set domain.IDSet) { s.saved = set },
		insert:  s.events.SaveEvent,
		remove:  s.events.UnsaveEvent,
	}, eventID)
}

// ToggleRSVP adds or removes the user's RSVP for an event
func (s *Synchronizer) ToggleRSVP(ctx context.Context, eventID string) error {
	return s.toggle(ctx, toggleSpec{
		name:    "rsvp",
		noun:    "RSVP",
		current: func(s *Synchronizer) domain.IDSet { return s.rsvpd },
		assign:  func(s *Synchronizer, set domain.IDSet) { s.rsvpd = set },
		insert:  s.events.RSVP,
		remove:  s.events.CancelRSVP,
	}, eventID)
}

// ToggleJoinedClub joins or leaves a club. Leaving is refused before any
// state change when the user administers the club; administrators must
// transfer the club first.
func (s *Synchronizer) ToggleJoinedClub(ctx context.Context, clubID string) error {
	s.mu.RLock()
	sess := s.session
	adminLeave := s.managed.Has(clubID) && s.joined.Has(clubID)
	s.mu.RUnlock()

	if sess == nil {
		return nil
	}
	if adminLeave {
		s.alert("Cannot Leave Club", "You manage this club. Transfer ownership before leaving.")
		return domain.ErrAdminLeave
	}

	return s.toggle(ctx, toggleSpec{
		name:    "joined_club",
		noun:    "club membership",
		current: func(s *Synchronizer) domain.IDSet { return s.joined },
		assign:  func(s *Synchronizer, set domain.IDSet) { s.joined = set },
		insert:  s.clubs.JoinClub,
		remove:  s.clubs.LeaveClub,
	}, clubID)
}

// toggle runs the optimistic-update protocol: flip the local set and
// publish immediately, then reconcile with the backend. On remote failure
// only this identifier's membership is reverted; entries committed by
// toggles on other identifiers during the round-trip are left intact, and
// the revert is skipped entirely if the user signed out (or changed) in
// the meantime, since the sets no longer belong to this session. An alert
// is surfaced either way. Without a session the operation is a silent
// no-op.
//
// Toggles are serialized per identifier: a second toggle on the same id
// waits for the first one's round-trip to settle, so overlapping
// insert/delete pairs cannot leave local and remote state disagreeing.
func (s *Synchronizer) toggle(ctx context.Context, spec toggleSpec, entityID string) error {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return nil
	}

	unlock := s.keys.Lock(spec.name + ":" + entityID)
	defer unlock()

	// Membership is re-read under the key lock so the flip applies to the
	// immediately-preceding local state
	s.mu.Lock()
	cur := spec.current(s)
	wasMember := cur.Has(entityID)
	next := cur.Clone()
	if wasMember {
		next.Remove(entityID)
	} else {
		next.Add(entityID)
	}
	spec.assign(s, next)
	s.mu.Unlock()
	s.publish()

	call := spec.insert
	if wasMember {
		call = spec.remove
	}

	if err := call(ctx, sess.User.ID, entityID); err != nil {
		s.logger.Error("toggle failed, rolling back", "op", spec.name, "id", entityID, "error", err)

		s.mu.Lock()
		if s.session != nil && s.session.User.ID == sess.User.ID {
			reverted := spec.current(s).Clone()
			if wasMember {
				reverted.Add(entityID)
			} else {
				reverted.Remove(entityID)
			}
			spec.assign(s, reverted)
		}
		s.mu.Unlock()
		s.publish()

		s.alert("Something Went Wrong", fmt.Sprintf("Could not update your %s. Please try again.", spec.noun))
		return fmt.Errorf("%s toggle: %w", spec.name, err)
	}

	return nil
}
