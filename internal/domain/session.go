package domain

import "time"

// User is the identity portion of an authenticated session
type User struct {
	ID       string            // Auth provider user ID
	Email    string            // Sign-in email
	Metadata map[string]string // Profile metadata set at sign-up (full_name, avatar_url, ...)
}

// Session is the opaque credential plus identity returned by the auth provider.
// It is owned exclusively by the synchronizer; all other components receive it
// read-only and must not mutate it.
type Session struct {
	AccessToken  string    // Bearer token for API calls
	RefreshToken string    // Token used to mint a new access token
	ExpiresAt    time.Time // Access token expiry
	User         User
}

// Expired reports whether the access token is past (or within a minute of) expiry
func (s *Session) Expired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt.Add(-time.Minute))
}

// AuthEventType identifies the kind of auth-state transition
type AuthEventType int

const (
	AuthSignedIn AuthEventType = iota
	AuthSignedOut
	AuthTokenRefreshed
)

// String returns the event type name for logging
func (t AuthEventType) String() string {
	switch t {
	case AuthSignedIn:
		return "signed_in"
	case AuthSignedOut:
		return "signed_out"
	case AuthTokenRefreshed:
		return "token_refreshed"
	default:
		return "unknown"
	}
}

// AuthEvent is emitted by the auth provider on every session change.
// Session is nil for AuthSignedOut.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}
