// Package errors provides structured error handling for the derby engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Track errors
	CodeTrackInvariant Code = "TRACK_INVARIANT_VIOLATION"
	CodeTrackTooShort  Code = "TRACK_TOO_SHORT"
	CodeTrackBounds    Code = "TRACK_OUT_OF_BOUNDS"

	// Roster errors
	CodeRosterEmpty     Code = "ROSTER_EMPTY"
	CodeRosterDuplicate Code = "ROSTER_DUPLICATE_NAME"

	// Batch errors
	CodeBatchRuns Code = "BATCH_RUNS_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Random/seed errors
	CodeSeedOutOfRange Code = "SEED_OUT_OF_RANGE"
)
