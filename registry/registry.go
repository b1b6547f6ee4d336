// Package registry implements TileRegistry from spec.md §4.3: an
// associative store keyed by (tile_row, tile_col, location), safe for
// concurrent coordination calls. Grounded on the teacher's locked,
// plain-map registries of cluster metadata (cluster.T.Sowner().Get(),
// meta.Bck lookups in tcb.go) — a sync.Map was considered (as used by
// gogpu-gg/internal/parallel/tile_pool.go) but rejected because
// iterate_by_coord needs all locations for one (I,J), which a sync.Map
// can only answer by a full scan.
package registry

import (
	"sync"

	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/internal/hooks"
	"github.com/dtile-project/dtile/tile"
)

// Coord is a global tile index (I, J), 0 <= I < MT, 0 <= J < NT.
type Coord struct{ I, J int }

// Key is the registry's compound key: a coordinate plus its residency.
type Key struct {
	Coord
	Loc tile.Location
}

// Registry is a TileRegistry for one scalar type, shared by a Matrix and
// every view derived from it.
type Registry[S tile.Scalar] struct {
	mu sync.RWMutex
	m  map[Key]*tile.Tile[S]
}

// New creates an empty registry.
func New[S tile.Scalar]() *Registry[S] {
	return &Registry[S]{m: make(map[Key]*tile.Tile[S])}
}

// Find looks up the tile at (i, j, loc).
func (r *Registry[S]) Find(i, j int, loc tile.Location) (*tile.Tile[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.m[Key{Coord{i, j}, loc}]
	return t, ok
}

// Insert adds t at (i, j, loc). Returns InvariantViolated if an entry
// already exists there — spec.md §7 lists "recv into an already-resident
// slot" as exactly this condition.
func (r *Registry[S]) Insert(i, j int, loc tile.Location, t *tile.Tile[S]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := Key{Coord{i, j}, loc}
	if _, exists := r.m[key]; exists {
		return cmn.InvariantViolated("Registry.Insert", "(%d,%d,%s) already resident", i, j, loc)
	}
	r.m[key] = t
	hooks.ResidentTiles.Inc()
	return nil
}

// Replace installs t at (i, j, loc) unconditionally, releasing whatever
// tile was previously there. Used internally by motion operations that
// have already decided to overwrite (e.g. re-receiving the same
// broadcast tile is rejected by Insert, but Matrix's own bookkeeping
// never needs that path).
func (r *Registry[S]) Replace(i, j int, loc tile.Location, t *tile.Tile[S]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := Key{Coord{i, j}, loc}
	if old, exists := r.m[key]; exists {
		old.Release()
	} else {
		hooks.ResidentTiles.Inc()
	}
	r.m[key] = t
}

// Erase removes the entry at (i, j, loc) if present, releasing its block
// back to the pool (unless it is an origin tile). No-op if absent.
func (r *Registry[S]) Erase(i, j int, loc tile.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := Key{Coord{i, j}, loc}
	t, ok := r.m[key]
	if !ok {
		return
	}
	delete(r.m, key)
	t.Release()
	hooks.ResidentTiles.Dec()
}

// EraseAll removes every location's entry for (i, j).
func (r *Registry[S]) EraseAll(i, j int) {
	r.mu.Lock()
	locs := r.locationsLocked(i, j)
	r.mu.Unlock()
	for _, loc := range locs {
		r.Erase(i, j, loc)
	}
}

// IterateByCoord returns every location currently holding a copy of
// (i, j).
func (r *Registry[S]) IterateByCoord(i, j int) []tile.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locationsLocked(i, j)
}

func (r *Registry[S]) locationsLocked(i, j int) []tile.Location {
	var locs []tile.Location
	for k := range r.m {
		if k.Coord == (Coord{i, j}) {
			locs = append(locs, k.Loc)
		}
	}
	return locs
}

// Len returns the total number of entries, for tests and diagnostics.
func (r *Registry[S]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}
