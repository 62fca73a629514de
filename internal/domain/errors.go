package domain

import "errors"

var (
	// ErrEntityNotFound is returned when an entity id is not registered
	ErrEntityNotFound = errors.New("entity not found")
	// ErrTokenNotFound is returned when a token is no longer in flight
	ErrTokenNotFound = errors.New("token not found")
	// ErrNotReady is returned when an entity has no visual handle yet
	ErrNotReady = errors.New("entity not ready")
	// ErrInvalidDocument is returned when the data document cannot be used
	ErrInvalidDocument = errors.New("invalid document")
)
