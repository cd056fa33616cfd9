package domain

import "errors"

var (
	// ErrNotFound covers unknown subscriptions, notifications and users.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an active subscription already exists for
	// the same (user, event type, scope, scope id) key.
	ErrConflict = errors.New("already exists")
	// ErrAuth covers bad or expired realtime tokens.
	ErrAuth = errors.New("unauthorized")
	// ErrInvalidTransition is returned for backward status transitions,
	// e.g. moving READ back to SENT.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrBadRequest covers malformed dispatch input (unknown event type or scope).
	ErrBadRequest = errors.New("bad request")
)
