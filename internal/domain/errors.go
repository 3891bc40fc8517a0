package domain

import "errors"

// Storage-contract sentinels. Repository implementations translate their
// backend's failures into these; services and handlers match with errors.Is.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates a conditional write lost to a
	// concurrent mutation. The caller should re-read and retry or
	// surface the conflict to the user.
	ErrVersionConflict = errors.New("the entity has been modified by another user")

	// ErrAlreadyExists indicates an insert collided with an existing key.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDownstream indicates the authoritative row-store write committed
	// but a dependent blob or mail effect failed afterwards. The committed
	// state stands; the effect needs reconciliation, not rollback.
	ErrDownstream = errors.New("downstream effect failed after commit")
)
