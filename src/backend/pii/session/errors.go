package session

import "errors"

var (
	// ErrSessionExpired is returned when a session is used after its TTL.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound is returned when a session id is unknown or evicted.
	ErrSessionNotFound = errors.New("session not found")
)
