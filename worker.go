package threadpool

import "fmt"

// Worker is the handle a task function and the thread start/end callbacks
// receive. It carries the worker's id and name, a context slot the worker
// exclusively owns for the duration of its life, and the means to release
// this worker's reference to the shared callback argument early.
type Worker struct {
	id   int
	name string
	pool *Pool

	ctx any

	refHeld bool
}

// ID returns the worker's index in [0, NumThreads).
func (w *Worker) ID() int { return w.id }

// Name returns "<prefix>-<hex id>", valid for the life of the worker.
func (w *Worker) Name() string { return w.name }

// Context returns the worker's context slot, nil until SetContext is
// called. Only the worker's own goroutine ever reads or writes this slot.
func (w *Worker) Context() any { return w.ctx }

// SetContext stores a value in the worker's context slot, replacing
// whatever was there. Construction and destruction of the value are
// entirely the caller's responsibility -- the pool never inspects it.
func (w *Worker) SetContext(ctx any) { w.ctx = ctx }

// UnsetContext clears the worker's context slot.
func (w *Worker) UnsetContext() { w.ctx = nil }

// ReleaseCallbackArg releases this worker's reference to the pool's
// shared callback argument ahead of the worker's own exit, running the
// destructor immediately if this was the last outstanding reference.
// Idempotent: calling it more than once from the same worker releases at
// most one reference.
func (w *Worker) ReleaseCallbackArg() {
	if !w.refHeld {
		return
	}
	w.refHeld = false
	if w.pool.callbackArgRefcount != nil {
		w.pool.callbackArgRefcount.Release()
	}
}

func workerName(prefix string, id int) string {
	if r := []rune(prefix); len(r) > 6 {
		prefix = string(r[:6])
	}
	return fmt.Sprintf("%s-%x", prefix, id)
}
