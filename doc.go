// Copyright (c) 2025 go-threadpool contributors
//
// Use of this source code is covered by an MIT-style
// license that can be found in the LICENSE file

// Package threadpool provides a lifecycle-safe fixed-size worker pool: a
// bounded FIFO job queue consumed by a fixed set of worker goroutines,
// coordinated by a monotonic lifecycle state machine so that concurrent
// callers -- including callers that race with Destroy -- never observe
// undefined behaviour, only a clean error.
//
// A Pool is constructed with New and driven through AddWork, Wait,
// Reactivate, Shutdown and Destroy. Workers pull jobs from the queue,
// run them, and loop until Shutdown is called. Wait blocks until the
// queue is empty and no worker is running a job, after which the pool is
// quiesced: further AddWork calls block until Reactivate.
//
// Diagnostic passport variants (AddWorkVia, WaitVia, ...) accept an
// explicit *Passport so a caller can hold a handle whose lifetime exceeds
// the pool's own, and observe the pool's terminal state safely even after
// Destroy has returned.
package threadpool
