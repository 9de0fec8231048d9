package models

import "errors"

// Sentinel error kinds. Callers match with errors.Is.
var (
	// ErrValidation covers malformed input: score out of range, too many
	// fractional digits, missing identifiers. Nothing was written.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a referenced heat/surfer/owner does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a benign duplicate, e.g. assigning a surfer to a
	// heat twice. Bulk imports rely on this being a no-op.
	ErrConflict = errors.New("already exists")

	// ErrInvalidTransition is returned for a status change the
	// transition table does not allow (COMPLETED heats stay completed,
	// eliminated surfers stay eliminated).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrHeatNotLive is returned by settlement when the LIVE->COMPLETED
	// swap fails: the heat was never started, was already settled, or
	// another operator won the race.
	ErrHeatNotLive = errors.New("heat is not live")
)
