// Package pool implements TilePool from spec.md §4.2: a slab allocator
// fixed at one block size (nb*nb elements) with a free list per location,
// page-locked host blocks, and per-location synchronization so concurrent
// acquire/release calls on different locations never contend.
//
// Grounded on gogpu-gg/internal/parallel/tile_pool.go's per-size pool
// idiom, adapted from sync.Pool (GC-reclaimable, non-deterministic) to
// explicit mutex-guarded stacks: spec.md requires "a block acquired at
// location L is only ever released at L", an invariant sync.Pool cannot
// enforce since the runtime may drop pooled values at any time.
package pool

import (
	"sync"

	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/internal/hooks"
	"github.com/dtile-project/dtile/tile"
)

// location is a per-location free list plus its own lock, so the pool can
// service host and device acquire/release concurrently.
type location[S tile.Scalar] struct {
	mu   sync.Mutex
	free [][]S
}

// Pool is a TilePool fixed at one block size: nb*nb elements of S.
type Pool[S tile.Scalar] struct {
	blockLen int

	locsMu sync.RWMutex
	locs   map[tile.Location]*location[S]
}

// New creates a TilePool whose blocks hold nb*nb elements of S.
func New[S tile.Scalar](nb int) *Pool[S] {
	return &Pool[S]{
		blockLen: nb * nb,
		locs:     make(map[tile.Location]*location[S]),
	}
}

// BlockLen implements tile.Allocator.
func (p *Pool[S]) BlockLen() int { return p.blockLen }

func (p *Pool[S]) locFor(loc tile.Location) *location[S] {
	p.locsMu.RLock()
	l, ok := p.locs[loc]
	p.locsMu.RUnlock()
	if ok {
		return l
	}
	p.locsMu.Lock()
	defer p.locsMu.Unlock()
	if l, ok = p.locs[loc]; ok {
		return l
	}
	l = &location[S]{}
	p.locs[loc] = l
	return l
}

// ReserveHost pre-allocates count page-locked host blocks.
func (p *Pool[S]) ReserveHost(count int) error {
	return p.reserve(tile.HostLocation, count, true)
}

// ReserveDevice pre-allocates count blocks on device dev. No real
// accelerator binding exists in this module (see DESIGN.md); the blocks
// are ordinary Go memory tagged with the device's Location, consistent
// with device.Backend's CPU-simulated default.
func (p *Pool[S]) ReserveDevice(dev int, count int) error {
	return p.reserve(tile.DeviceLocation(dev), count, false)
}

func (p *Pool[S]) reserve(loc tile.Location, count int, pageLock bool) error {
	l := p.locFor(loc)
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < count; i++ {
		block, err := p.newBlock(pageLock)
		if err != nil {
			hooks.AllocFailuresTotal.Inc()
			return cmn.AllocFailed("Pool.reserve", err, "block %d/%d at %s", i, count, loc)
		}
		l.free = append(l.free, block)
	}
	return nil
}

func (p *Pool[S]) newBlock(pageLock bool) ([]S, error) {
	block := make([]S, p.blockLen)
	if pageLock {
		if err := mlock(block); err != nil {
			return nil, err
		}
	}
	return block, nil
}

// Acquire returns a block from loc's free list, lazily growing it if
// empty. Implements tile.Allocator.
func (p *Pool[S]) Acquire(loc tile.Location) ([]S, error) {
	l := p.locFor(loc)
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.free); n > 0 {
		block := l.free[n-1]
		l.free = l.free[:n-1]
		return block, nil
	}
	block, err := p.newBlock(loc.Host)
	if err != nil {
		hooks.AllocFailuresTotal.Inc()
		return nil, cmn.AllocFailed("Pool.Acquire", err, "grow free list at %s", loc)
	}
	return block, nil
}

// Release returns block to loc's free list. Implements tile.Allocator.
// block may be a ragged edge tile's logical slice (len < blockLen, from
// dist's partial last row/column), so the check is against cap, which a
// block acquired from this pool always has exactly blockLen of,
// regardless of how far a tile later truncated its len. Panics, in every
// build, with an InvariantViolated *cmn.Error if block's capacity does not
// match this pool's block size, which happens when the block came from a
// pool with a different block size. Every location of one pool uses the
// same block size, so a release at the wrong location of this pool is not
// detected.
func (p *Pool[S]) Release(block []S, loc tile.Location) {
	if cap(block) != p.blockLen {
		panic(cmn.InvariantViolated("Pool.Release", "block has capacity %d, pool block size is %d (released at wrong location?)", cap(block), p.blockLen))
	}
	l := p.locFor(loc)
	l.mu.Lock()
	l.free = append(l.free, block[:p.blockLen])
	l.mu.Unlock()
}

// Outstanding returns the number of blocks currently free at loc, for
// tests and diagnostics.
func (p *Pool[S]) Outstanding(loc tile.Location) int {
	l := p.locFor(loc)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.free)
}
