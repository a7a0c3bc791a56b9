package detectors

import "errors"

var (
	// ErrEngineUnavailable is returned when a producer cannot be initialized.
	ErrEngineUnavailable = errors.New("detection engine unavailable")

	// ErrProducerFailed wraps an error raised by a producer during a single call.
	ErrProducerFailed = errors.New("producer failed")

	// ErrInvalidSpan marks an entity whose offsets are out of bounds or empty.
	ErrInvalidSpan = errors.New("invalid entity span")

	// ErrBadPattern marks a pattern that failed to compile.
	ErrBadPattern = errors.New("bad pattern")
)
