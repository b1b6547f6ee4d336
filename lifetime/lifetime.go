// Package lifetime implements LifetimeTracker from spec.md §4.7: a
// counter table for non-local tiles received by broadcast, decremented by
// tick and reclaimed at zero. Grounded on the teacher's refc
// atomic.Int32 + debug.Assert(refc >= 0) idiom in xact/xs/tcb.go's recv,
// which is exactly this "counter hits zero -> reclaim" shape.
package lifetime

import (
	"sync"

	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/internal/cmn/atomic"
	"github.com/dtile-project/dtile/internal/cmn/debug"
	"github.com/dtile-project/dtile/internal/hooks"
)

// Coord is a global tile index, matching registry.Coord's shape (kept as
// its own type so this package has no dependency on registry).
type Coord struct{ I, J int }

// Tracker is a LifetimeTracker for one Matrix.
type Tracker struct {
	mu       sync.Mutex
	counters map[Coord]*atomic.Int32
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{counters: make(map[Coord]*atomic.Int32)}
}

// Set installs the life counter for (i, j) at v, called when a tile is
// received via broadcast. Returns InvariantViolated if v is negative or a
// counter already exists for (i, j) (receiving into an already-tracked
// slot is the InvariantViolated case spec.md §7 names for recv).
func (t *Tracker) Set(i, j int, v int32) error {
	if v < 0 {
		return cmn.InvariantViolated("Tracker.Set", "negative life %d for (%d,%d)", v, i, j)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := Coord{i, j}
	if _, exists := t.counters[key]; exists {
		return cmn.InvariantViolated("Tracker.Set", "(%d,%d) already has a life counter", i, j)
	}
	c := &atomic.Int32{}
	c.Store(v)
	t.counters[key] = c
	return nil
}

// Decrement implements tick's non-local path: decrements the counter for
// (i, j), returning the remaining count and whether it just reached zero.
// Returns InvariantViolated if no counter exists (e.g. the L+1'th tick
// after L ticks already reclaimed it — spec.md §8 invariant 4).
func (t *Tracker) Decrement(i, j int) (remaining int32, reachedZero bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := Coord{i, j}
	c, ok := t.counters[key]
	if !ok {
		return 0, false, cmn.InvariantViolated("Tracker.Decrement", "no life counter for (%d,%d)", i, j)
	}
	hooks.TicksTotal.Inc()
	n := c.Dec()
	debug.Assertf(n >= 0, "lifetime counter for (%d,%d) went negative", i, j)
	if n < 0 {
		delete(t.counters, key)
		return 0, false, cmn.InvariantViolated("Tracker.Decrement", "(%d,%d) ticked past zero", i, j)
	}
	if n == 0 {
		delete(t.counters, key)
		hooks.ReclaimsTotal.Inc()
		return 0, true, nil
	}
	return n, false, nil
}

// Has reports whether (i, j) currently has a tracked life counter.
func (t *Tracker) Has(i, j int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.counters[Coord{i, j}]
	return ok
}

// Erase removes the counter for (i, j) unconditionally, used when a tile
// is explicitly erased outside the tick protocol.
func (t *Tracker) Erase(i, j int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counters, Coord{i, j})
}

// Value returns the current counter at (i, j) without mutating it, for
// diagnostics and tests.
func (t *Tracker) Value(i, j int) (int32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.counters[Coord{i, j}]
	if !ok {
		return 0, false
	}
	return c.Load(), true
}
