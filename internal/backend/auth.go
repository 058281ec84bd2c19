package backend

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quadapp/quad/internal/domain"
)

const authEventBuffer = 8

// Auth implements domain.AuthProvider against the hosted auth endpoints.
// Every successful credential exchange is published on the Events channel
// so the synchronizer can react to sign-in, sign-out, and token refresh.
type Auth struct {
	c      *Client
	logger *slog.Logger
	events chan domain.AuthEvent
}

// NewAuth creates the auth sub-client for a backend client
func NewAuth(c *Client, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{
		c:      c,
		logger: logger,
		events: make(chan domain.AuthEvent, authEventBuffer),
	}
}

// Events is the inbound auth-state change stream
func (a *Auth) Events() <-chan domain.AuthEvent {
	return a.events
}

// sessionResponse is the wire shape of a token grant response
type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID           string            `json:"id"`
		Email        string            `json:"email"`
		UserMetadata map[string]string `json:"user_metadata"`
	} `json:"user"`
}

func (r sessionResponse) toSession() *domain.Session {
	sess := &domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User: domain.User{
			ID:       r.User.ID,
			Email:    r.User.Email,
			Metadata: r.User.UserMetadata,
		},
	}
	if r.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	} else {
		sess.ExpiresAt = tokenExpiry(r.AccessToken)
	}
	return sess
}

// tokenExpiry reads the exp claim from the access token without verifying
// the signature. The token is only inspected to schedule refreshes; the
// server remains the authority on validity.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// grant performs a token grant and publishes the resulting session
func (a *Auth) grant(ctx context.Context, grantType string, payload interface{}, eventType domain.AuthEventType) (*domain.Session, error) {
	query := url.Values{}
	query.Set("grant_type", grantType)

	var resp sessionResponse
	if err := a.c.doRequest(ctx, http.MethodPost, "/auth/v1/token", query, payload, &resp); err != nil {
		return nil, err
	}

	sess := resp.toSession()
	a.c.SetAccessToken(sess.AccessToken)
	a.publish(domain.AuthEvent{Type: eventType, Session: sess})
	return sess, nil
}

// SignIn exchanges email/password for a session
func (a *Auth) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	a.logger.Info("signing in", "email", email)
	return a.grant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	}, domain.AuthSignedIn)
}

// SignUp registers a new user and returns the resulting session
func (a *Auth) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Session, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if metadata != nil {
		payload["data"] = metadata
	}

	var resp sessionResponse
	if err := a.c.doRequest(ctx, http.MethodPost, "/auth/v1/signup", nil, payload, &resp); err != nil {
		return nil, err
	}

	sess := resp.toSession()
	a.c.SetAccessToken(sess.AccessToken)
	a.publish(domain.AuthEvent{Type: domain.AuthSignedIn, Session: sess})
	return sess, nil
}

// SignOut revokes the current session and publishes a signed-out event.
// The local sign-out proceeds even if revocation fails remotely.
func (a *Auth) SignOut(ctx context.Context) error {
	err := a.c.doRequest(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	if err != nil {
		a.logger.Warn("remote sign-out failed", "error", err)
	}
	a.c.SetAccessToken("")
	a.publish(domain.AuthEvent{Type: domain.AuthSignedOut})
	return err
}

// Restore validates a persisted session, refreshing it if expired, and
// publishes a signed-in event on success
func (a *Auth) Restore(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session == nil {
		return nil, domain.ErrNoSession
	}

	if session.Expired() {
		a.logger.Info("persisted session expired, refreshing")
		return a.refresh(ctx, session.RefreshToken, domain.AuthSignedIn)
	}

	a.c.SetAccessToken(session.AccessToken)
	a.publish(domain.AuthEvent{Type: domain.AuthSignedIn, Session: session})
	return session, nil
}

// UpdateUser updates the signed-in user's metadata on the auth service
func (a *Auth) UpdateUser(ctx context.Context, metadata map[string]string) (*domain.User, error) {
	payload := map[string]interface{}{"data": metadata}

	var resp struct {
		ID           string            `json:"id"`
		Email        string            `json:"email"`
		UserMetadata map[string]string `json:"user_metadata"`
	}
	if err := a.c.doRequest(ctx, http.MethodPut, "/auth/v1/user", nil, payload, &resp); err != nil {
		return nil, err
	}

	return &domain.User{
		ID:       resp.ID,
		Email:    resp.Email,
		Metadata: resp.UserMetadata,
	}, nil
}

// refresh exchanges a refresh token for a new session
func (a *Auth) refresh(ctx context.Context, refreshToken string, eventType domain.AuthEventType) (*domain.Session, error) {
	return a.grant(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, eventType)
}

// StartAutoRefresh refreshes the session shortly before each expiry until
// ctx is cancelled. Refresh failures are logged and retried on the next
// tick rather than tearing the session down.
func (a *Auth) StartAutoRefresh(ctx context.Context, session *domain.Session) {
	go func() {
		current := session
		for {
			wait := time.Until(current.ExpiresAt.Add(-time.Minute))
			if current.ExpiresAt.IsZero() || wait < time.Minute {
				wait = time.Minute
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			refreshed, err := a.refresh(ctx, current.RefreshToken, domain.AuthTokenRefreshed)
			if err != nil {
				a.logger.Warn("token refresh failed", "error", err)
				continue
			}
			current = refreshed
		}
	}()
}

// publish sends an auth event without blocking the caller. Dropping is
// acceptable only for a consumer that has already stopped draining.
func (a *Auth) publish(ev domain.AuthEvent) {
	select {
	case a.events <- ev:
	default:
		a.logger.Warn("auth event dropped", "type", ev.Type.String())
	}
}
