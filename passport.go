package threadpool

import (
	"log/slog"

	"github.com/npc1054657282/threadpool/internal/passport"
)

// Passport is the concurrency state block shared between a Pool and an
// optional user-held handle that outlives the pool. Its state is the
// single source of truth for whether public pool operations are
// permitted; a caller that races with Destroy observes a Passport whose
// state reads StateDestroyed and fails cleanly instead of touching freed
// pool state.
//
// A Passport may be bound to at most one pool at a time. Construct one
// with NewPassport and pass it via Config.Passport to take ownership of
// its lifetime; otherwise New creates and owns one internally.
type Passport struct {
	block      *passport.Block
	bound      *Pool
	namePrefix string
}

// NewPassport returns a new, unbound passport for diagnostic use. The
// caller that constructs one this way owns it: New will not free it, and
// the caller may keep observing its State after the pool is destroyed.
func NewPassport() *Passport {
	return &Passport{block: passport.New()}
}

// State reports the current lifecycle phase of the pool this passport is,
// or was, bound to.
func (p *Passport) State() State {
	if p == nil || p.block == nil {
		return StateUnbind
	}
	return State(p.block.State())
}

// Destroy releases a user-owned passport. Unlike the pool itself there is
// no memory to free in Go, but Destroy still validates the expected usage
// convention and logs accordingly, mirroring the diagnostic passport's C
// counterpart: destroying a still-bound, still-alive passport is a bug in
// the caller (a later Destroy on the pool would then own a dangling
// passport) and is logged as an error rather than silently accepted.
func (p *Passport) Destroy() {
	if p == nil {
		return
	}
	logger := slog.Default()
	if p.bound != nil && p.bound.logger != nil {
		logger = p.bound.logger
	}
	switch p.State() {
	case StateUnbind:
		logger.Warn("threadpool: destroying an unbound passport; do not rebind it to another pool")
	case StateDestroyed:
		logger.Warn("threadpool: destroying passport whose pool is already destroyed", "prefix", p.namePrefix)
	default:
		logger.Error("threadpool: destroying passport while its pool is still live", "prefix", p.namePrefix, "state", p.State())
	}
}
