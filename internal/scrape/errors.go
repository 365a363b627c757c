package scrape

import "errors"

var (
	// ErrAdapterTimeout marks an adapter that did not answer within its timeout.
	ErrAdapterTimeout = errors.New("adapter timed out")

	// ErrAllSourcesFailed is returned when every adapter failed.
	ErrAllSourcesFailed = errors.New("all sources failed")
)
