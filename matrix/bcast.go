package matrix

import (
	"context"
	"fmt"
	"sort"

	"github.com/dtile-project/dtile/dist"
	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/internal/hooks"
	"github.com/dtile-project/dtile/internal/sched"
	"github.com/dtile-project/dtile/tile"
)

// TileBcast implements spec.md §4.5.1: broadcasts the tile at (i, j)
// from its owner to every rank that will consume it within ranges,
// installing a life counter on each non-owner receiver so Tick can
// reclaim the tile once every local consumer has used it.
func (m *Matrix[S]) TileBcast(i, j int, ranges []Range, target BcastTarget) error {
	gi, gj := m.global(i, j)
	owner := m.distribution.OwnerRank(gi, gj)

	set := map[int]bool{owner: true}
	for _, rg := range ranges {
		for r := rg.I1; r <= rg.I2; r++ {
			for c := rg.J1; c <= rg.J2; c++ {
				gr, gc := m.global(r, c)
				set[m.distribution.OwnerRank(gr, gc)] = true
			}
		}
	}
	if !set[m.myRank] {
		return nil
	}

	m.transportMu.Lock()
	defer m.transportMu.Unlock()

	mb := m.distribution.RowHeight(gi)
	nb := m.distribution.ColWidth(gj)

	var recvTile *tile.Tile[S]
	if m.myRank != owner {
		var err error
		recvTile, err = m.ensureHostSlot(gi, gj, mb, nb)
		if err != nil {
			return err
		}
		life := int32(0)
		for _, rg := range ranges {
			life += int32(localCellCount(m.distribution, m.myRank, m.it, m.jt, rg))
		}
		if err := m.life.Set(gi, gj, life); err != nil {
			return err
		}
	}

	if len(set) == 1 {
		return nil
	}

	members := make([]int, 0, len(set))
	for r := range set {
		members = append(members, r)
	}
	sort.Ints(members)
	rootLocal := -1
	for idx, r := range members {
		if r == owner {
			rootLocal = idx
		}
	}
	if rootLocal < 0 {
		return cmn.InvariantViolated("Matrix.TileBcast", "owner %d missing from its own broadcast set", owner)
	}

	group, err := m.comm.NewGroup(members)
	if err != nil {
		return cmn.TransferFailed("Matrix.TileBcast", err, "build sub-communicator for (%d,%d)", gi, gj)
	}
	defer group.Close()

	var payload []byte
	if m.myRank == owner {
		src, ok := m.registry.Find(gi, gj, tile.HostLocation)
		if !ok {
			return cmn.NotResident("Matrix.TileBcast", "owner missing host tile (%d,%d)", gi, gj)
		}
		payload = elementsToBytes[S](src.Data())
	}
	out, err := group.Bcast(payload, rootLocal)
	if err != nil {
		return cmn.TransferFailed("Matrix.TileBcast", err, "broadcast (%d,%d)", gi, gj)
	}
	hooks.BroadcastsTotal.Inc()

	if m.myRank != owner {
		elems := bytesToElements[S](out, mb*nb)
		if err := recvTile.CopyFrom(elems, mb); err != nil {
			return err
		}
	}

	if target == Devices {
		count := m.devices.Count()
		tasks := make([]sched.Task, count)
		for dev := 0; dev < count; dev++ {
			dev := dev
			tasks[dev] = sched.Task{
				Name: fmt.Sprintf("copy_to_device(%d,%d,%d)", i, j, dev),
				Run: func(ctx context.Context) error {
					return m.CopyToDevice(i, j, dev)
				},
			}
		}
		if err := m.sched.Run(context.Background(), tasks); err != nil {
			return err
		}
	}
	return nil
}

// ensureHostSlot returns the existing host registry entry at (gi, gj),
// allocating and inserting a fresh one if absent (spec.md §4.5.1 step 3).
func (m *Matrix[S]) ensureHostSlot(gi, gj, mb, nb int) (*tile.Tile[S], error) {
	if t, ok := m.registry.Find(gi, gj, tile.HostLocation); ok {
		return t, nil
	}
	t, err := tile.Construct[S](mb, nb, m.pool)
	if err != nil {
		return nil, err
	}
	if err := m.registry.Insert(gi, gj, tile.HostLocation, t); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// localCellCount counts the cells of rg (view-relative coordinates)
// owned by rank under distribution, given the view's absolute tile
// origin (it, jt).
func localCellCount(distribution dist.Distribution, rank, it, jt int, rg Range) int {
	count := 0
	for r := rg.I1; r <= rg.I2; r++ {
		for c := rg.J1; c <= rg.J2; c++ {
			if distribution.OwnerRank(it+r, jt+c) == rank {
				count++
			}
		}
	}
	return count
}

// Send performs a single blocking point-to-point transfer of (i, j)'s
// host tile to dest (spec.md §4.5.2).
func (m *Matrix[S]) Send(i, j, dest int) error {
	gi, gj := m.global(i, j)
	t, ok := m.registry.Find(gi, gj, tile.HostLocation)
	if !ok {
		return cmn.NotResident("Matrix.Send", "(%d,%d,host) not resident", gi, gj)
	}
	m.transportMu.Lock()
	defer m.transportMu.Unlock()
	return m.comm.Send(elementsToBytes[S](t.Data()), dest)
}

// Recv performs a single blocking point-to-point transfer of (i, j) from
// src, allocating a host-resident slot first (spec.md §4.5.2).
func (m *Matrix[S]) Recv(i, j, src int) error {
	gi, gj := m.global(i, j)
	mb := m.distribution.RowHeight(gi)
	nb := m.distribution.ColWidth(gj)

	m.transportMu.Lock()
	defer m.transportMu.Unlock()

	t, err := m.ensureHostSlot(gi, gj, mb, nb)
	if err != nil {
		return err
	}
	data, err := m.comm.Recv(src)
	if err != nil {
		return cmn.TransferFailed("Matrix.Recv", err, "recv (%d,%d) from rank %d", gi, gj, src)
	}
	return t.CopyFrom(bytesToElements[S](data, mb*nb), mb)
}
