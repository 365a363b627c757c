package sqlstore

import "errors"

var (
	// ErrNotFound is returned when a journey, conversation or progress
	// record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the journey's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrProgressConflict is returned when a progress record changed
	// between read and write.
	ErrProgressConflict = errors.New("progress write conflict")
)
