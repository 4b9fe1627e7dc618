// Copyright (c) 2025 go-threadpool contributors
//
// Use of this source code is covered by an MIT-style
// license that can be found in the LICENSE file

// Package refcount implements the atomic reference count guarding the
// shared callback argument: one reference per worker plus one held by
// the pool constructor itself, released early by any worker that calls
// into its unref accessor, with the destructor invoked exactly once when
// the count reaches zero.
package refcount

import "sync/atomic"

// Counter is an atomic reference count with a destructor run exactly once
// when the count drops to zero.
type Counter struct {
	n          atomic.Int32
	destructor func()
	fired      atomic.Bool
}

// New returns a Counter initialised to n with the given destructor. The
// destructor must be non-nil; callers that have no destructor should not
// construct a Counter at all.
func New(n int32, destructor func()) *Counter {
	c := &Counter{destructor: destructor}
	c.n.Store(n)
	return c
}

// Release drops one reference, invoking the destructor exactly once if
// this call observes the count reach zero. It reports whether this call
// triggered the destructor.
func (c *Counter) Release() bool {
	if c.n.Add(-1) != 0 {
		return false
	}
	if c.fired.CompareAndSwap(false, true) {
		c.destructor()
		return true
	}
	return false
}

// Count reports the current reference count, for diagnostics and tests.
func (c *Counter) Count() int32 { return c.n.Load() }
