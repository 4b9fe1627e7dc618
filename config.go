package threadpool

import "log/slog"

// Config configures a Pool at construction time. It is consumed entirely
// during New; nothing in it needs to outlive that call except the values
// reachable through CallbackArg, ThreadStartCallback and ThreadEndCallback.
type Config struct {
	// ThreadNamePrefix prefixes every worker's name ("<prefix>-<hex id>").
	// Truncated to 6 visible characters if longer.
	ThreadNamePrefix string

	// NumThreads is the number of worker goroutines to start. Must be
	// positive; New rejects anything else with ErrInvalidArgument.
	NumThreads int

	// WorkQueueMax bounds the job queue. 0 (or negative) means unbounded.
	WorkQueueMax int

	// ThreadStartCallback, if set, runs once on each worker goroutine
	// after it is marked alive but before it pulls its first job.
	ThreadStartCallback func(arg any, w *Worker)

	// ThreadEndCallback, if set, runs once on each worker goroutine just
	// before it exits its loop.
	ThreadEndCallback func(w *Worker)

	// CallbackArg is the shared datum passed to ThreadStartCallback. Its
	// lifetime is the caller's responsibility unless CallbackArgDestructor
	// is also set, in which case ownership transfers to the pool.
	CallbackArg any

	// CallbackArgDestructor, if set, is invoked exactly once -- when every
	// worker and New itself has released its reference to CallbackArg --
	// during Destroy, or earlier if every worker has already released its
	// reference through Worker.ReleaseCallbackArg. If every worker fails
	// to start, New returns without invoking it and the caller keeps
	// ownership of CallbackArg. Leave nil if CallbackArg needs no cleanup.
	CallbackArgDestructor func(arg any)

	// Passport, if set, is a user-owned passport New will bind instead of
	// allocating its own. The caller retains ownership and may keep using
	// it (read-only, via State or the Via method family) after Destroy.
	Passport *Passport

	// Logger receives the pool's structured diagnostic records. Defaults
	// to slog.Default() when nil.
	Logger *slog.Logger

	// workerSpawnHook is test-only: when set, it runs once per worker
	// slot before the worker goroutine is started, and a returned error
	// simulates a failed spawn -- the one failure mode the C original's
	// pthread_create has that goroutine creation cannot reproduce.
	workerSpawnHook func(id int) error
}
