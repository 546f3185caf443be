package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrSealed is returned when a sealed value cannot be opened with the configured secret.
	ErrSealed = errors.New("persistence: sealed value could not be opened")
)
