package domain

import "go.trai.ch/zerr"

var (
	// ErrFileNotFound is returned when the world cannot find a requested file.
	ErrFileNotFound = zerr.New("file not found")

	// ErrFileNotReadable is returned when a file exists but cannot be read.
	ErrFileNotReadable = zerr.New("file not readable")

	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNotConverged is attached to the diagnostic reported when layout does
	// not reach a fixed point within the iteration limit.
	ErrNotConverged = zerr.New("layout did not converge")

	// ErrCompileFailed is returned when a compilation yields error diagnostics.
	ErrCompileFailed = zerr.New("compilation failed")
)
