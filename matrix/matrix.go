// Package matrix implements Matrix from spec.md §4.5: the tiled
// distributed matrix substrate that composes Distribution, TileRegistry,
// TilePool, device.Set and a transport.Communicator into the single type
// numerical routines are built against. Grounded on the teacher's
// XactTCB (xact/xs/tcb.go): construction discovering rank/target count,
// a data-mover driving point-to-point and broadcast motion under one
// critical section, and Snap-style introspection, generalized here from
// "copy a bucket between targets" to "move tiles between ranks and
// devices with explicit lifetime".
package matrix

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dtile-project/dtile/device"
	"github.com/dtile-project/dtile/dist"
	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/internal/sched"
	"github.com/dtile-project/dtile/lifetime"
	"github.com/dtile-project/dtile/pool"
	"github.com/dtile-project/dtile/registry"
	"github.com/dtile-project/dtile/tile"
	"github.com/dtile-project/dtile/transport"
)

// Config describes a Matrix's construction parameters, per spec.md
// §4.5's construct(M, N, data, lda, nb, comm, p, q).
type Config[S tile.Scalar] struct {
	M, N int
	// Data is the caller's M x N column-major block at stride LDA. Nil
	// means fill randomly (diagonally dominant when Shape is triangular,
	// matching spec.md's "Hermitian tests" note).
	Data []S
	LDA  int
	NB   int

	Comm transport.Communicator
	P, Q int
	// Devices is the per-rank device count; 0 means host-only.
	Devices int
	// Backend constructs device streams/handles; nil defaults to
	// device.CPUBackend{}.
	Backend device.Backend
	// Distribution overrides the default block-cyclic mapping.
	Distribution dist.Distribution
	// Shape controls gather/max_local_tiles iteration (spec.md §9's Open
	// Question, resolved per SPEC_FULL.md §5.5/§7).
	Shape IterShape
	// Rand seeds random fill when Data is nil. Nil means a fresh
	// generator seeded from a fixed value, giving deterministic tests.
	Rand *rand.Rand
}

// Matrix is a tiled distributed dense matrix, or a view over one
// produced by Submatrix. Views share the parent's registry, pool,
// devices, lifetime tracker and transport lock (spec.md §4.5 "sharing
// registry, pool, and contexts").
type Matrix[S tile.Scalar] struct {
	it, jt int // this view's tile origin in the root's absolute grid
	mt, nt int // this view's tile grid shape
	nb     int
	shape  IterShape

	myRank       int
	distribution dist.Distribution
	registry     *registry.Registry[S]
	pool         *pool.Pool[S]
	devices      *device.Set
	life         *lifetime.Tracker
	comm         transport.Communicator
	sched        *sched.Pool
	// copyGroup dedups concurrent CopyToDevice calls racing on the same
	// (gi, gj, dev): spec.md §5's copy_to_device is idempotent but not
	// required to re-do work a call already in flight will finish.
	copyGroup *singleflight.Group

	transportMu *sync.Mutex
}

// Construct builds the root Matrix per spec.md §4.5: discovers rank and
// device count from cfg, installs the (default block-cyclic, unless
// overridden) distribution, allocates the pool, populates every
// locally-owned tile from cfg.Data or, absent that, from a random fill,
// and sizes each device's batch arrays to MaxLocalTiles for that device.
func Construct[S tile.Scalar](cfg Config[S]) (*Matrix[S], error) {
	if cfg.NB <= 0 {
		return nil, cmn.InvalidArgument("matrix.Construct", "nb=%d must be positive", cfg.NB)
	}
	if cfg.M <= 0 || cfg.N <= 0 {
		return nil, cmn.InvalidArgument("matrix.Construct", "M=%d N=%d must be positive", cfg.M, cfg.N)
	}
	if cfg.Comm == nil {
		return nil, cmn.InvalidArgument("matrix.Construct", "comm must not be nil")
	}

	distribution := cfg.Distribution
	if distribution == nil {
		distribution = dist.NewBlockCyclic(cfg.M, cfg.N, cfg.NB, cfg.P, cfg.Q, cfg.Devices)
	}

	mt := (cfg.M + cfg.NB - 1) / cfg.NB
	nt := (cfg.N + cfg.NB - 1) / cfg.NB

	m := &Matrix[S]{
		mt: mt, nt: nt, nb: cfg.NB, shape: cfg.Shape,
		myRank:       cfg.Comm.Rank(),
		distribution: distribution,
		registry:     registry.New[S](),
		pool:         pool.New[S](cfg.NB),
		devices:      device.NewSet(cfg.Devices, cfg.Backend),
		life:         lifetime.New(),
		comm:         cfg.Comm,
		sched:        &sched.Pool{},
		copyGroup:    &singleflight.Group{},
		transportMu:  &sync.Mutex{},
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	for i := 0; i < mt; i++ {
		for j := 0; j < nt; j++ {
			if distribution.OwnerRank(i, j) != m.myRank {
				continue
			}
			mb := distribution.RowHeight(i)
			nb := distribution.ColWidth(j)
			t, err := tile.Construct[S](mb, nb, m.pool)
			if err != nil {
				return nil, err
			}
			if cfg.Data != nil {
				rowOff, colOff := i*cfg.NB, j*cfg.NB
				off := rowOff + colOff*cfg.LDA
				if err := t.CopyFrom(cfg.Data[off:], cfg.LDA); err != nil {
					t.Release()
					return nil, err
				}
			} else {
				fillRandom[S](t, i, j, rng, cfg.Shape)
			}
			if err := m.registry.Insert(i, j, tile.HostLocation, t); err != nil {
				t.Release()
				return nil, err
			}
		}
	}

	capacities := make([]int, m.devices.Count())
	for d := range capacities {
		capacities[d] = m.MaxLocalTiles(tile.DeviceLocation(d))
	}
	if err := m.devices.InitBatchArrays(capacities); err != nil {
		return nil, err
	}
	return m, nil
}

func fillRandom[S tile.Scalar](t *tile.Tile[S], gi, gj int, rng *rand.Rand, shape IterShape) {
	diag := shape != Full && gi == gj
	boost := diagonalBoost[S](t.NB())
	for col := 0; col < t.NB(); col++ {
		for row := 0; row < t.MB(); row++ {
			v := randomScalar[S](rng)
			if diag && row == col {
				v = addScalar(v, boost)
			}
			t.Set(row, col, v)
		}
	}
}

// Submatrix returns a view covering tile rows [i1, i2] and columns
// [j1, j2] of m, sharing its registry, pool, devices and transport
// (spec.md §4.5's submatrix contract).
func (m *Matrix[S]) Submatrix(i1, i2, j1, j2 int) (*Matrix[S], error) {
	if i1 < 0 || i2 < i1 || i2 >= m.mt || j1 < 0 || j2 < j1 || j2 >= m.nt {
		return nil, cmn.InvalidArgument("Matrix.Submatrix", "bounds [%d,%d]x[%d,%d] out of range for %dx%d grid", i1, i2, j1, j2, m.mt, m.nt)
	}
	view := *m
	view.it, view.jt = m.it+i1, m.jt+j1
	view.mt, view.nt = i2-i1+1, j2-j1+1
	return &view, nil
}

// MT returns the view's tile row count.
func (m *Matrix[S]) MT() int { return m.mt }

// NT returns the view's tile column count.
func (m *Matrix[S]) NT() int { return m.nt }

// Rank returns this process's rank in the matrix's communicator.
func (m *Matrix[S]) Rank() int { return m.myRank }

func (m *Matrix[S]) global(i, j int) (int, int) { return m.it + i, m.jt + j }

// Tile returns the tile stored at (i, j, loc), defaulting loc to the
// host. Fails NotResident if absent (spec.md §4.5).
func (m *Matrix[S]) Tile(i, j int, loc ...tile.Location) (*tile.Tile[S], error) {
	l := tile.HostLocation
	if len(loc) > 0 {
		l = loc[0]
	}
	gi, gj := m.global(i, j)
	t, ok := m.registry.Find(gi, gj, l)
	if !ok {
		return nil, cmn.NotResident("Matrix.Tile", "(%d,%d,%s) not resident", gi, gj, l)
	}
	return t, nil
}

// IsLocal reports whether (i, j) is owned by this rank.
func (m *Matrix[S]) IsLocal(i, j int) bool {
	gi, gj := m.global(i, j)
	return m.distribution.OwnerRank(gi, gj) == m.myRank
}

// CopyToDevice copies (i, j)'s host tile to dev, leaving the host copy in
// place. No-op if already resident at dev (spec.md §4.5). Concurrent
// calls racing on the same (i, j, dev) dedup through copyGroup so only
// one actual transfer runs; every caller observes its result.
func (m *Matrix[S]) CopyToDevice(i, j, dev int) error {
	gi, gj := m.global(i, j)
	key := strconv.Itoa(gi) + ":" + strconv.Itoa(gj) + ":" + strconv.Itoa(dev)
	_, err, _ := m.copyGroup.Do(key, func() (interface{}, error) {
		return nil, m.copyToDeviceOnce(gi, gj, dev)
	})
	return err
}

func (m *Matrix[S]) copyToDeviceOnce(gi, gj, dev int) error {
	devLoc := tile.DeviceLocation(dev)
	if _, ok := m.registry.Find(gi, gj, devLoc); ok {
		return nil
	}
	host, ok := m.registry.Find(gi, gj, tile.HostLocation)
	if !ok {
		return cmn.NotResident("Matrix.CopyToDevice", "(%d,%d,host) not resident", gi, gj)
	}
	ctx, err := m.devices.Context(dev)
	if err != nil {
		return err
	}
	copied, err := host.CopyTo(m.pool, devLoc, ctx.Comm)
	if err != nil {
		return err
	}
	if err := m.registry.Insert(gi, gj, devLoc, copied); err != nil {
		copied.Release()
		return err
	}
	return nil
}

// MoveToDevice is CopyToDevice followed by erasing the host copy.
func (m *Matrix[S]) MoveToDevice(i, j, dev int) error {
	if err := m.CopyToDevice(i, j, dev); err != nil {
		return err
	}
	gi, gj := m.global(i, j)
	m.registry.Erase(gi, gj, tile.HostLocation)
	return nil
}

// MoveToHost copies (i, j)'s tile from dev back to the host, erasing the
// device copy, the mirror of MoveToDevice.
func (m *Matrix[S]) MoveToHost(i, j, dev int) error {
	gi, gj := m.global(i, j)
	devLoc := tile.DeviceLocation(dev)
	devTile, ok := m.registry.Find(gi, gj, devLoc)
	if !ok {
		return cmn.NotResident("Matrix.MoveToHost", "(%d,%d,%s) not resident", gi, gj, devLoc)
	}
	ctx, err := m.devices.Context(dev)
	if err != nil {
		return err
	}
	if _, ok := m.registry.Find(gi, gj, tile.HostLocation); !ok {
		copied, err := devTile.CopyTo(m.pool, tile.HostLocation, ctx.Comm)
		if err != nil {
			return err
		}
		if err := m.registry.Insert(gi, gj, tile.HostLocation, copied); err != nil {
			copied.Release()
			return err
		}
	}
	m.registry.Erase(gi, gj, devLoc)
	return nil
}

// Erase removes (i, j)'s copy at loc, if present.
func (m *Matrix[S]) Erase(i, j int, loc tile.Location) {
	gi, gj := m.global(i, j)
	m.registry.Erase(gi, gj, loc)
}

// Tick implements spec.md §4.5's tick: a no-op for locally-owned tiles,
// otherwise decrements the tile's life counter and, on reaching zero,
// erases every location's copy.
func (m *Matrix[S]) Tick(i, j int) error {
	if m.IsLocal(i, j) {
		return nil
	}
	gi, gj := m.global(i, j)
	_, reachedZero, err := m.life.Decrement(gi, gj)
	if err != nil {
		return err
	}
	if reachedZero {
		for _, loc := range m.registry.IterateByCoord(gi, gj) {
			m.registry.Erase(gi, gj, loc)
		}
	}
	return nil
}

// Life returns the current life counter at (i, j) and whether one
// exists, for diagnostics and tests (SPEC_FULL.md §5.7).
func (m *Matrix[S]) Life(i, j int) (int32, bool) {
	gi, gj := m.global(i, j)
	return m.life.Value(gi, gj)
}

// LocalTileCount returns the total number of tiles this rank owns,
// unfiltered by device or IterShape (SPEC_FULL.md §5.5 supplement).
func (m *Matrix[S]) LocalTileCount() int {
	count := 0
	for i := 0; i < m.mt; i++ {
		for j := 0; j < m.nt; j++ {
			if m.IsLocal(i, j) {
				count++
			}
		}
	}
	return count
}

// MaxLocalTiles returns the count of local tiles placed at loc,
// restricted to the matrix's IterShape (SPEC_FULL.md §5.5, generalizing
// spec.md §4.5's "considering only the lower triangle when Hermitian").
func (m *Matrix[S]) MaxLocalTiles(loc tile.Location) int {
	count := 0
	for i := 0; i < m.mt; i++ {
		for j := 0; j < m.nt; j++ {
			if !m.shape.includes(i, j) || !m.IsLocal(i, j) {
				continue
			}
			gi, gj := m.global(i, j)
			dev, ok := m.distribution.Device(gi, gj)
			switch {
			case loc.Host && !ok:
				count++
			case !loc.Host && ok && dev == loc.Device:
				count++
			}
		}
	}
	return count
}

// InsertLocal seeds a locally-owned tile's host storage directly from
// data (SPEC_FULL.md §5.5 supplement), for numerical routines (e.g. a
// factorization panel) that produce a tile's contents without a
// tile_bcast. Fails InvalidArgument if (i, j) is not local.
func (m *Matrix[S]) InsertLocal(i, j int, data []S, lda int) error {
	if !m.IsLocal(i, j) {
		return cmn.InvalidArgument("Matrix.InsertLocal", "(%d,%d) is not local to rank %d", i, j, m.myRank)
	}
	gi, gj := m.global(i, j)
	mb := m.distribution.RowHeight(gi)
	nb := m.distribution.ColWidth(gj)
	t, err := tile.Construct[S](mb, nb, m.pool)
	if err != nil {
		return err
	}
	if err := t.CopyFrom(data, lda); err != nil {
		t.Release()
		return err
	}
	m.registry.Replace(gi, gj, tile.HostLocation, t)
	return nil
}

// gatherPeer is the sched.Key Gather declares for every transfer with one
// remote rank. The Communicator matches a Recv to a sender by rank only,
// so transfers with the same peer must run in the same (i, j) order on
// both sides; sharing this key chains them in program order.
type gatherPeer struct{ rank int }

// Gather implements spec.md §4.5's gather: root (rank 0) pulls every
// non-local tile within the matrix's IterShape via point-to-point, while
// every other rank sends its local tiles in that shape to root. Every
// cell's send/recv is its own sched.Task; tasks with the same peer rank
// run one after another in row-major (i, j) order, and tasks with
// different peers are dispatched concurrently up to the pool's
// Concurrency (each transfer still takes transportMu).
func (m *Matrix[S]) Gather() error {
	const root = 0
	var tasks []sched.Task
	for i := 0; i < m.mt; i++ {
		for j := 0; j < m.nt; j++ {
			if !m.shape.includes(i, j) {
				continue
			}
			i, j := i, j
			gi, gj := m.global(i, j)
			owner := m.distribution.OwnerRank(gi, gj)
			switch {
			case m.myRank == root && owner != root:
				tasks = append(tasks, sched.Task{
					Name:    fmt.Sprintf("gather-recv(%d,%d)", gi, gj),
					Outputs: []sched.Key{gatherPeer{owner}},
					Run: func(ctx context.Context) error {
						return m.Recv(i, j, owner)
					},
				})
			case m.myRank != root && owner == m.myRank:
				tasks = append(tasks, sched.Task{
					Name:    fmt.Sprintf("gather-send(%d,%d)", gi, gj),
					Outputs: []sched.Key{gatherPeer{root}},
					Run: func(ctx context.Context) error {
						return m.Send(i, j, root)
					},
				})
			}
		}
	}
	return m.sched.Run(context.Background(), tasks)
}
