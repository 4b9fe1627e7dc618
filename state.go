package threadpool

import "github.com/npc1054657282/threadpool/internal/passport"

// State is a lifecycle phase of a Pool, read from its bound Passport.
// Transitions are strictly monotonic along this ordering, with the sole
// exception of the rollback from StateAlive to StateUnbind that can occur
// when New fails after a successful passport bind.
type State int32

const (
	StateUnbind       State = State(passport.Unbind)
	StateAlive        State = State(passport.Alive)
	StateShuttingDown State = State(passport.ShuttingDown)
	StateShutdown     State = State(passport.Shutdown)
	StateDestroying   State = State(passport.Destroying)
	StateDestroyed    State = State(passport.Destroyed)
)

func (s State) String() string { return passport.State(s).String() }
