// Copyright (c) 2025 go-threadpool contributors
//
// Use of this source code is covered by an MIT-style
// license that can be found in the LICENSE file

// Package passport implements the concurrency state block shared between a
// pool and, optionally, a user-held handle that outlives the pool. It is
// the single source of truth for whether public pool operations are
// permitted, and is built entirely on atomics so its state can be read
// outside of any lock.
package passport

import "sync/atomic"

// State is a lifecycle phase of the pool the passport is bound to.
// States are strictly monotonic, with the sole exception of the rollback
// from Alive to Unbind performed when New fails after a successful bind.
type State int32

const (
	Unbind State = iota
	Alive
	ShuttingDown
	Shutdown
	Destroying
	Destroyed
)

func (s State) String() string {
	switch s {
	case Unbind:
		return "UNBIND"
	case Alive:
		return "ALIVE"
	case ShuttingDown:
		return "SHUTTING_DOWN"
	case Shutdown:
		return "SHUTDOWN"
	case Destroying:
		return "DESTROYING"
	case Destroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN_STATE"
	}
}

// Block is the passport itself: an atomic state plus an atomic count of
// public-entry calls currently using it.
type Block struct {
	state     atomic.Int32
	numAPIUse atomic.Int32
}

// New returns a passport in the Unbind state, ready to be bound by New.
func New() *Block {
	b := &Block{}
	b.state.Store(int32(Unbind))
	return b
}

// State returns the current lifecycle state.
func (b *Block) State() State { return State(b.state.Load()) }

// Bind transitions Unbind -> Alive. It reports whether the transition
// happened; a false result means the passport is already bound elsewhere.
func (b *Block) Bind() bool {
	return b.state.CompareAndSwap(int32(Unbind), int32(Alive))
}

// RollbackBind undoes a successful Bind when initialization later fails.
// This is the sole permitted backward transition in the state machine.
func (b *Block) RollbackBind() bool {
	return b.state.CompareAndSwap(int32(Alive), int32(Unbind))
}

// BeginShutdown transitions Alive -> ShuttingDown.
func (b *Block) BeginShutdown() bool {
	return b.state.CompareAndSwap(int32(Alive), int32(ShuttingDown))
}

// FinishShutdown transitions ShuttingDown -> Shutdown.
func (b *Block) FinishShutdown() bool {
	return b.state.CompareAndSwap(int32(ShuttingDown), int32(Shutdown))
}

// BeginDestroy transitions Shutdown -> Destroying.
func (b *Block) BeginDestroy() bool {
	return b.state.CompareAndSwap(int32(Shutdown), int32(Destroying))
}

// FinishDestroy transitions Destroying -> Destroyed.
func (b *Block) FinishDestroy() bool {
	return b.state.CompareAndSwap(int32(Destroying), int32(Destroyed))
}

// BeginCall records one more in-flight public call using this passport.
func (b *Block) BeginCall() { b.numAPIUse.Add(1) }

// EndCall records that an in-flight public call using this passport returned.
func (b *Block) EndCall() { b.numAPIUse.Add(-1) }

// NumAPIUse reports how many public calls are currently in flight.
func (b *Block) NumAPIUse() int32 { return b.numAPIUse.Load() }
