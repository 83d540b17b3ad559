package model

import "errors"

var (
	// ErrInvalidObservation marks an observation rejected by validation.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrInsufficientData marks an indicator call with fewer samples than
	// its documented minimum.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNotTracked marks an operation on a symbol outside the tracked set.
	ErrNotTracked = errors.New("symbol not tracked")

	// ErrFeedUnavailable wraps transient failures of the external feed.
	ErrFeedUnavailable = errors.New("feed unavailable")
)
