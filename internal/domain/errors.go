package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the backend is unreachable
	ErrServerOffline = errors.New("backend is unreachable")

	// ErrAuthFailed indicates the access token or credentials were rejected
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrNoSession indicates an operation that requires a signed-in user was
	// called without one
	ErrNoSession = errors.New("no authenticated session")

	// ErrAdminLeave indicates an admin tried to leave a club they manage.
	// Rejected before any state change or remote call.
	ErrAdminLeave = errors.New("admins cannot leave a club they manage")
)
