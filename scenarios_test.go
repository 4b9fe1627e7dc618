// Copyright (c) 2025 go-threadpool contributors
//
// Use of this source code is covered by an MIT-style
// license that can be found in the LICENSE file

package threadpool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S-new-1: if every worker fails to spawn, New must roll the passport
// back to StateUnbind and return ErrOutOfMemory rather than leaving a
// half-initialised pool bound to it.
func TestScenarioAllWorkersFailRollback(t *testing.T) {
	pp := NewPassport()
	require.Equal(t, StateUnbind, pp.State())

	_, err := New(Config{
		ThreadNamePrefix: "fail",
		NumThreads:       4,
		Passport:         pp,
		workerSpawnHook: func(id int) error {
			return fmt.Errorf("injected spawn failure for worker %d", id)
		},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.Equal(t, StateUnbind, pp.State())
}

// A pool where only some workers fail to spawn still starts, with
// NumThreads reporting the smaller, actual count.
func TestScenarioPartialWorkerFailureStillStarts(t *testing.T) {
	var attempt atomic.Int32

	p, err := New(Config{
		ThreadNamePrefix: "part",
		NumThreads:       4,
		workerSpawnHook: func(id int) error {
			if attempt.Add(1)%2 == 0 {
				return errors.New("injected failure")
			}
			return nil
		},
	})
	require.NoError(t, err)
	defer p.Destroy()

	assert.Less(t, p.NumThreads(), 4)
	assert.Greater(t, p.NumThreads(), 0)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.AddWork(func(arg any, w *Worker) { wg.Done() }, nil))
	wg.Wait()
}

// S5-equivalent: the shared callback-arg destructor fires exactly once,
// after New's own reference and then, during Destroy, every worker's
// reference have been released, with 16 jobs run across 8 workers first.
func TestScenarioCallbackArgDestructorFiresOnceUnderContention(t *testing.T) {
	var fired atomic.Int32

	p, err := New(Config{
		ThreadNamePrefix: "race",
		NumThreads:       8,
		CallbackArg:      "payload",
		CallbackArgDestructor: func(arg any) {
			fired.Add(1)
		},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(16)
	for i := 0; i < 16; i++ {
		require.NoError(t, p.AddWork(func(arg any, w *Worker) { wg.Done() }, nil))
	}
	wg.Wait()

	require.NoError(t, p.Destroy())
	assert.Equal(t, int32(1), fired.Load())
}

// Many callers racing AddWork/Wait/Reactivate concurrently never panic
// or deadlock, and every queued job eventually runs exactly once.
func TestScenarioConcurrentCallersNeverRace(t *testing.T) {
	p, err := New(Config{
		ThreadNamePrefix: "conc",
		NumThreads:       6,
		WorkQueueMax:     4,
	})
	require.NoError(t, err)
	defer p.Destroy()

	var total atomic.Int32
	var producers sync.WaitGroup
	const perProducer = 20
	for i := 0; i < 5; i++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for j := 0; j < perProducer; j++ {
				_ = p.AddWork(func(arg any, w *Worker) { total.Add(1) }, nil)
			}
		}()
	}

	var waiters sync.WaitGroup
	for i := 0; i < 3; i++ {
		waiters.Add(1)
		go func() {
			defer waiters.Done()
			_ = p.Wait()
			_ = p.Reactivate()
		}()
	}

	producers.Wait()
	waiters.Wait()
	require.NoError(t, p.Wait())
	assert.Equal(t, int32(5*perProducer), total.Load())
}

// A worker's context slot keeps its value from one job to the next job
// run by the same worker.
func TestScenarioWorkerContextSlotPersistsAcrossJobs(t *testing.T) {
	p, err := New(Config{
		ThreadNamePrefix: "ctx",
		NumThreads:       1,
	})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.AddWork(func(arg any, w *Worker) {
		w.SetContext(42)
	}, nil))
	require.NoError(t, p.Wait())

	done := make(chan int, 1)
	require.NoError(t, p.Reactivate())
	require.NoError(t, p.AddWork(func(arg any, w *Worker) {
		v, _ := w.Context().(int)
		done <- v
		w.UnsetContext()
	}, nil))

	assert.Equal(t, 42, <-done)
}
