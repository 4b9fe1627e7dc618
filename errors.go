package threadpool

import "errors"

// Sentinel errors every public operation wraps its failures with, so
// callers can use errors.Is instead of matching on message text.
var (
	// ErrInvalidArgument covers misuse: a nil pool or passport passed to
	// one of the Via methods, a passport bound to a different pool, an
	// operation attempted in a non-Alive state, or a re-entrant call from
	// within a worker goroutine. The plain methods (AddWork, Wait, ...)
	// read the pool's own passport first and panic on a nil *Pool.
	ErrInvalidArgument = errors.New("threadpool: invalid argument")

	// ErrOutOfMemory covers allocation/spawn failures during New or
	// AddWork -- in Go this surfaces only through the test-only worker
	// spawn hook, since goroutine creation itself cannot fail.
	ErrOutOfMemory = errors.New("threadpool: out of memory")

	// ErrCancelled is returned by AddWork when a producer blocked on a
	// full or quiesced queue is woken by Shutdown before it could enqueue.
	ErrCancelled = errors.New("threadpool: cancelled")
)
