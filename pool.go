// Copyright (c) 2022 Ilya Toropchenko <eliastor@users.noreply.github.com>
//
// Use if this source code is covered by an MIT-style
// license that can be found in the LICENSE file

package threadpool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/npc1054657282/threadpool/internal/goroutineid"
	"github.com/npc1054657282/threadpool/internal/jobqueue"
	"github.com/npc1054657282/threadpool/internal/refcount"
)

// pollInterval is how often Shutdown and Destroy poll for the conditions
// they must wait on (worker exit, in-flight call drain, a concurrent
// shutdown finishing); New polls for worker readiness on a shorter, fixed
// 10µs interval. The original C implementation used a raw sleep for the
// same waits rather than adding more condition variables to paths that
// are not performance sensitive; this keeps that tradeoff.
const pollInterval = time.Millisecond

// Pool is a fixed-size set of worker goroutines consuming jobs from a
// bounded FIFO queue. Construct one with New; every exported method is
// safe to call concurrently from any number of goroutines except a Pool's
// own workers, which must never call Wait, Shutdown or Destroy on the
// pool they belong to -- doing so would deadlock, and is refused instead.
type Pool struct {
	namePrefix string
	passport   *Passport

	queue      *jobqueue.Queue
	queueMu    sync.Mutex
	getJobCond *sync.Cond
	putJobCond *sync.Cond

	idleMu   sync.Mutex
	idleCond *sync.Cond

	keepalive atomic.Bool
	active    atomic.Bool

	numThreadsAlive   atomic.Int32
	numThreadsWorking atomic.Int32

	workers          []*Worker
	workerGoroutines sync.Map // goroutineid.ID() -> struct{}, worker re-entrancy guard

	threadStartCB         func(arg any, w *Worker)
	threadEndCB           func(w *Worker)
	callbackArg           any
	callbackArgDestructor func(any)
	callbackArgRefcount   *refcount.Counter

	logger *slog.Logger
}

// New validates cfg, allocates a Pool, binds its passport, and spawns
// cfg.NumThreads worker goroutines. It blocks until every spawned worker
// reports itself alive before returning.
//
// If cfg.NumThreads is not positive, New returns ErrInvalidArgument. If
// every worker fails to start (only possible via the test-only spawn
// hook, since goroutine creation cannot itself fail), New rolls the
// passport back to StateUnbind and returns ErrOutOfMemory; the caller
// keeps ownership of CallbackArg in that case.
func New(cfg Config) (*Pool, error) {
	if cfg.NumThreads <= 0 {
		return nil, fmt.Errorf("num_threads must be positive, got %d: %w", cfg.NumThreads, ErrInvalidArgument)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pp := cfg.Passport
	if pp == nil {
		pp = NewPassport()
	}

	if !pp.block.Bind() {
		logger.Error("threadpool: cannot bind passport, already bound", "state", pp.State())
		return nil, fmt.Errorf("passport already bound to a pool: %w", ErrInvalidArgument)
	}

	prefix := cfg.ThreadNamePrefix
	if r := []rune(prefix); len(r) > 6 {
		prefix = string(r[:6])
	}
	pp.namePrefix = prefix

	p := &Pool{
		namePrefix:            prefix,
		passport:              pp,
		queue:                 jobqueue.New(cfg.WorkQueueMax),
		threadStartCB:         cfg.ThreadStartCallback,
		threadEndCB:           cfg.ThreadEndCallback,
		callbackArg:           cfg.CallbackArg,
		callbackArgDestructor: cfg.CallbackArgDestructor,
		logger:                logger,
	}
	p.getJobCond = sync.NewCond(&p.queueMu)
	p.putJobCond = sync.NewCond(&p.queueMu)
	p.idleCond = sync.NewCond(&p.idleMu)
	p.keepalive.Store(true)
	p.active.Store(true)
	pp.bound = p

	if cfg.CallbackArgDestructor != nil {
		p.callbackArgRefcount = refcount.New(int32(cfg.NumThreads+1), func() {
			cfg.CallbackArgDestructor(cfg.CallbackArg)
			logger.Debug("threadpool: callback arg destructed")
		})
	}

	for i := 0; i < cfg.NumThreads; i++ {
		w := &Worker{id: i, name: workerName(prefix, i), pool: p}
		if p.callbackArgRefcount != nil {
			w.refHeld = true
		}
		if cfg.workerSpawnHook != nil {
			if err := cfg.workerSpawnHook(i); err != nil {
				logger.Error("threadpool: worker spawn failed", "id", i, "err", err)
				if p.callbackArgRefcount != nil {
					p.callbackArgRefcount.Release()
				}
				continue
			}
		}
		p.workers = append(p.workers, w)
		go p.workerLoop(w)
	}

	if len(p.workers) == 0 {
		logger.Error("threadpool: every worker failed to start, rolling back", "requested", cfg.NumThreads)
		if !pp.block.RollbackBind() {
			logger.Error("threadpool: passport rollback failed", "state", pp.State())
		}
		pp.bound = nil
		return nil, fmt.Errorf("no worker could be started: %w", ErrOutOfMemory)
	}

	if p.callbackArgRefcount != nil {
		p.callbackArgRefcount.Release()
	}

	target := int32(len(p.workers))
	for p.numThreadsAlive.Load() != target {
		time.Sleep(10 * time.Microsecond)
	}

	return p, nil
}

// NumThreads reports how many worker goroutines are actually running --
// equal to cfg.NumThreads unless the test-only spawn hook rejected some.
func (p *Pool) NumThreads() int { return len(p.workers) }

func (p *Pool) isCurrentGoroutineWorker() bool {
	_, ok := p.workerGoroutines.Load(goroutineid.ID())
	return ok
}

func (p *Pool) checkPassport(pp *Passport) error {
	if p == nil {
		return fmt.Errorf("nil pool: %w", ErrInvalidArgument)
	}
	if pp == nil {
		return fmt.Errorf("nil passport: %w", ErrInvalidArgument)
	}
	if pp.bound != p {
		return fmt.Errorf("passport not bound to this pool: %w", ErrInvalidArgument)
	}
	return nil
}

// gated implements the "refcounted state-gated call" admission pattern
// shared by every public operation except New, Shutdown and Destroy:
// count the in-flight call, run fn only while the passport reads Alive,
// and always decrement on return.
func (p *Pool) gated(pp *Passport, fn func() error) error {
	pp.block.BeginCall()
	defer pp.block.EndCall()
	if state := pp.State(); state != StateAlive {
		p.logger.Error("threadpool: operation rejected, pool not alive", "state", state)
		return fmt.Errorf("pool is in state %s: %w", state, ErrInvalidArgument)
	}
	return fn()
}

func (p *Pool) gatedInt(pp *Passport, fn func() int) (int, error) {
	result := -1
	err := p.gated(pp, func() error {
		result = fn()
		return nil
	})
	if err != nil {
		return -1, err
	}
	return result, nil
}

// AddWork enqueues fn to be run with arg by some worker, using the pool's
// own internally owned passport. It blocks while the queue is full or the
// pool is quiesced (see Wait), and returns ErrCancelled if Shutdown wakes
// it first.
func (p *Pool) AddWork(fn func(arg any, w *Worker), arg any) error {
	return p.AddWorkVia(p.passport, fn, arg)
}

// AddWorkVia is the diagnostic-passport variant of AddWork.
func (p *Pool) AddWorkVia(pp *Passport, fn func(arg any, w *Worker), arg any) error {
	if err := p.checkPassport(pp); err != nil {
		return err
	}
	return p.gated(pp, func() error {
		return p.putJob(&job{fn: fn, arg: arg})
	})
}

// Wait blocks until the job queue is empty and no worker is running a
// job, then quiesces the pool: subsequent AddWork calls block until
// Reactivate. Refuses with ErrInvalidArgument if called from a worker
// goroutine belonging to this pool, since that would deadlock.
func (p *Pool) Wait() error { return p.WaitVia(p.passport) }

// WaitVia is the diagnostic-passport variant of Wait.
func (p *Pool) WaitVia(pp *Passport) error {
	if err := p.checkPassport(pp); err != nil {
		return err
	}
	return p.gated(pp, p.waitInner)
}

func (p *Pool) waitInner() error {
	if p.isCurrentGoroutineWorker() {
		return fmt.Errorf("wait called from within a worker goroutine: %w", ErrInvalidArgument)
	}

	p.idleMu.Lock()
	for p.keepalive.Load() {
		p.queueMu.Lock()
		qlen := p.queue.Len()
		working := p.numThreadsWorking.Load()
		if qlen != 0 || working != 0 {
			p.queueMu.Unlock()
			p.idleCond.Wait()
			continue
		}
		p.active.Store(false)
		p.queueMu.Unlock()
		break
	}
	p.idleMu.Unlock()
	return nil
}

// Reactivate un-quiesces the pool after Wait, unblocking any AddWork call
// already waiting and any future one. A no-op, observationally, if the
// pool was never quiesced.
func (p *Pool) Reactivate() error { return p.ReactivateVia(p.passport) }

// ReactivateVia is the diagnostic-passport variant of Reactivate.
func (p *Pool) ReactivateVia(pp *Passport) error {
	if err := p.checkPassport(pp); err != nil {
		return err
	}
	return p.gated(pp, p.reactivateInner)
}

func (p *Pool) reactivateInner() error {
	p.queueMu.Lock()
	p.active.Store(true)
	p.getJobCond.Broadcast()
	p.putJobCond.Broadcast()
	p.queueMu.Unlock()
	return nil
}

// NumThreadsWorking reports how many workers are currently executing a
// job.
func (p *Pool) NumThreadsWorking() (int, error) { return p.NumThreadsWorkingVia(p.passport) }

// NumThreadsWorkingVia is the diagnostic-passport variant of NumThreadsWorking.
func (p *Pool) NumThreadsWorkingVia(pp *Passport) (int, error) {
	if err := p.checkPassport(pp); err != nil {
		return -1, err
	}
	return p.gatedInt(pp, func() int { return int(p.numThreadsWorking.Load()) })
}

// Shutdown stops accepting new work: it wakes every blocked producer and
// consumer, waits for every worker to exit and every in-flight public
// call to return, then drops whatever remains queued. After Shutdown
// returns, only Destroy (and read-only Passport.State) remain valid.
// Refuses with ErrInvalidArgument if called from one of this pool's own
// worker goroutines.
func (p *Pool) Shutdown() error { return p.ShutdownVia(p.passport) }

// ShutdownVia is the diagnostic-passport variant of Shutdown.
func (p *Pool) ShutdownVia(pp *Passport) error {
	if err := p.checkPassport(pp); err != nil {
		return err
	}
	return p.shutdown(pp)
}

func (p *Pool) shutdown(pp *Passport) error {
	if p.isCurrentGoroutineWorker() {
		return fmt.Errorf("shutdown called from within a worker goroutine: %w", ErrInvalidArgument)
	}

	if !pp.block.BeginShutdown() {
		state := pp.State()
		p.logger.Error("threadpool: cannot shutdown", "state", state)
		return fmt.Errorf("pool is in state %s, cannot shutdown: %w", state, ErrInvalidArgument)
	}

	p.keepalive.Store(false)
	p.active.Store(false)

	p.queueMu.Lock()
	p.getJobCond.Broadcast()
	p.putJobCond.Broadcast()
	p.queueMu.Unlock()

	// A Wait call blocked on idleCond only ever gets woken by a worker
	// finishing a job. A job still sitting in the queue, never picked up
	// before keepalive dropped, produces no such wakeup once the queue is
	// cleared below -- broadcast here too so no Wait call is left stranded.
	p.idleMu.Lock()
	p.idleCond.Broadcast()
	p.idleMu.Unlock()

	for p.numThreadsAlive.Load() != 0 {
		time.Sleep(pollInterval)
	}
	for pp.block.NumAPIUse() != 0 {
		time.Sleep(pollInterval)
	}

	p.queueMu.Lock()
	p.queue.Clear()
	p.queueMu.Unlock()

	if !pp.block.FinishShutdown() {
		state := pp.State()
		p.logger.Error("threadpool: shutdown state transition invariant violated", "state", state)
		panic(fmt.Sprintf("threadpool: shutdown observed impossible state %s", state))
	}
	return nil
}

// Destroy releases every resource owned by the pool. If the pool has not
// been shut down yet, Destroy logs a warning and shuts it down itself
// first. If the passport was user-owned, it is left bound to this (now
// destroyed) pool so the caller can keep reading its State; otherwise it
// is dropped along with the pool. Refuses with ErrInvalidArgument if
// called from one of this pool's own worker goroutines.
func (p *Pool) Destroy() error { return p.DestroyVia(p.passport) }

// DestroyVia is the diagnostic-passport variant of Destroy.
func (p *Pool) DestroyVia(pp *Passport) error {
	if err := p.checkPassport(pp); err != nil {
		return err
	}
	return p.destroy(pp)
}

func (p *Pool) destroy(pp *Passport) error {
	if p.isCurrentGoroutineWorker() {
		return fmt.Errorf("destroy called from within a worker goroutine: %w", ErrInvalidArgument)
	}

	for !pp.block.BeginDestroy() {
		switch pp.State() {
		case StateAlive:
			p.logger.Warn("threadpool: pool has not been shut down yet, shutting down automatically", "prefix", p.namePrefix)
			_ = p.shutdown(pp)
		case StateShuttingDown:
			p.logger.Warn("threadpool: pool is shutting down, waiting", "prefix", p.namePrefix)
			time.Sleep(pollInterval)
		case StateShutdown:
			// Lost a race with BeginDestroy's own CAS; retry.
		default:
			state := pp.State()
			p.logger.Error("threadpool: cannot destroy", "state", state)
			return fmt.Errorf("pool is in state %s, cannot destroy: %w", state, ErrInvalidArgument)
		}
	}

	for _, w := range p.workers {
		if w.refHeld && p.callbackArgRefcount != nil {
			w.refHeld = false
			p.callbackArgRefcount.Release()
		}
	}
	p.workers = nil

	if !pp.block.FinishDestroy() {
		state := pp.State()
		p.logger.Error("threadpool: destroy state transition invariant violated", "state", state)
		panic(fmt.Sprintf("threadpool: destroy observed impossible state %s", state))
	}

	return nil
}

// workerLoop is what each worker goroutine runs for its entire life.
func (p *Pool) workerLoop(w *Worker) {
	gid := goroutineid.ID()
	p.workerGoroutines.Store(gid, struct{}{})
	defer p.workerGoroutines.Delete(gid)

	p.numThreadsAlive.Add(1)

	if p.threadStartCB != nil {
		p.threadStartCB(p.callbackArg, w)
	}

	for p.keepalive.Load() {
		j, ok := p.getJob()
		if !ok {
			break
		}

		p.numThreadsWorking.Add(1)
		j.fn(j.arg, w)
		if p.numThreadsWorking.Add(-1) == 0 {
			p.idleMu.Lock()
			p.idleCond.Broadcast()
			p.idleMu.Unlock()
		}
	}

	if p.threadEndCB != nil {
		p.threadEndCB(w)
	}

	p.numThreadsAlive.Add(-1)
}

// putJob implements the producer side of the bounded queue's dual
// back-pressure: block while the pool is quiesced or the queue is full,
// wake up a blocked consumer exactly when the queue transitions empty to
// non-empty, using broadcast (never signal) since a signalled waiter has
// no priority over a new lock acquirer and could be starved.
func (p *Pool) putJob(j *job) error {
	p.queueMu.Lock()

	for p.keepalive.Load() && (!p.active.Load() || (p.queue.MaxLen() > 0 && p.queue.Len() >= p.queue.MaxLen())) {
		p.putJobCond.Wait()
	}

	if !p.keepalive.Load() {
		p.queueMu.Unlock()
		return fmt.Errorf("pool is shutting down: %w", ErrCancelled)
	}

	p.queue.Push(j)
	if p.queue.Len() == 1 {
		p.getJobCond.Broadcast()
	}

	p.queueMu.Unlock()
	return nil
}

// getJob implements the consumer side: block while the pool is quiesced
// or the queue is empty, wake up a blocked producer exactly when the
// queue transitions from full to not-full.
func (p *Pool) getJob() (*job, bool) {
	p.queueMu.Lock()

	for p.keepalive.Load() && (p.queue.Len() == 0 || !p.active.Load()) {
		p.getJobCond.Wait()
	}

	if !p.keepalive.Load() {
		p.queueMu.Unlock()
		return nil, false
	}

	item, _ := p.queue.Pull()
	maxLen := p.queue.MaxLen()
	if maxLen > 0 && p.queue.Len() == maxLen-1 {
		p.putJobCond.Broadcast()
	}

	p.queueMu.Unlock()
	return item.(*job), true
}
