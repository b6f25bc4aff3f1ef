package database

import "errors"

var (
	// ErrInsufficientHistory means fewer than two distinct snapshot
	// timestamps exist. Not fatal: the caller treats the run as a
	// baseline-establishment pass and exits cleanly.
	ErrInsufficientHistory = errors.New("database: fewer than two snapshots recorded")

	// ErrNoSnapshots means no snapshot exists at all.
	ErrNoSnapshots = errors.New("database: no snapshots recorded")

	// ErrNoPrimaryQuery means no stored query is marked primary. This is
	// a configuration precondition failure; runs abort before diffing.
	ErrNoPrimaryQuery = errors.New("database: no query is marked primary")
)
