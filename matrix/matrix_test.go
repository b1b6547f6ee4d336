package matrix_test

import (
	"math/rand"
	"testing"

	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/matrix"
	"github.com/dtile-project/dtile/tile"
	"github.com/dtile-project/dtile/transport"
)

func identity(n int) []float64 {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return data
}

// S1: M=N=8, nb=2, p=q=1, D=0, caller data is the 8x8 identity.
func TestS1IdentitySingleRank(t *testing.T) {
	world := transport.NewWorld(1)
	m, err := matrix.Construct[float64](matrix.Config[float64]{
		M: 8, N: 8, Data: identity(8), LDA: 8, NB: 2,
		Comm: world.Rank(0), P: 1, Q: 1, Devices: 0,
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if m.MT() != 4 || m.NT() != 4 {
		t.Fatalf("MT,NT = %d,%d, want 4,4", m.MT(), m.NT())
	}
	for d := 0; d < 4; d++ {
		tl, err := m.Tile(d, d)
		if err != nil {
			t.Fatalf("Tile(%d,%d): %v", d, d, err)
		}
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				want := 0.0
				if r == c {
					want = 1
				}
				if got := tl.At(r, c); got != want {
					t.Fatalf("diagonal tile (%d,%d) elem (%d,%d) = %v, want %v", d, d, r, c, got, want)
				}
			}
		}
	}
	if _, err := m.Tile(0, 0, tile.DeviceLocation(0)); !cmn.Is(err, cmn.KindNotResident) {
		t.Fatalf("expected NotResident querying an unpopulated device slot, got %v", err)
	}
}

// S4: M=N=4, nb=2, p=q=1, D=2; copy/move device round-trip.
func TestS4DeviceCopyMoveRoundtrip(t *testing.T) {
	world := transport.NewWorld(1)
	m, err := matrix.Construct[float64](matrix.Config[float64]{
		M: 4, N: 4, NB: 2, Comm: world.Rank(0), P: 1, Q: 1, Devices: 2,
		Rand: rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if err := m.CopyToDevice(0, 0, 1); err != nil {
		t.Fatalf("CopyToDevice: %v", err)
	}
	if _, err := m.Tile(0, 0, tile.DeviceLocation(1)); err != nil {
		t.Fatalf("expected (0,0,dev1) resident: %v", err)
	}
	if _, err := m.Tile(0, 0, tile.HostLocation); err != nil {
		t.Fatalf("host copy should survive copy_to_device: %v", err)
	}

	if err := m.MoveToHost(0, 0, 1); err != nil {
		t.Fatalf("MoveToHost: %v", err)
	}
	if _, err := m.Tile(0, 0, tile.DeviceLocation(1)); !cmn.Is(err, cmn.KindNotResident) {
		t.Fatalf("expected dev1 entry erased, got err=%v", err)
	}
	if _, err := m.Tile(0, 0, tile.HostLocation); err != nil {
		t.Fatalf("host copy should remain: %v", err)
	}
}

// S6: submatrix view sharing — a coordinate on the view resolves to the
// identical tile as the equivalent coordinate on the parent.
func TestS6SubmatrixViewSharesRegistry(t *testing.T) {
	world := transport.NewWorld(1)
	m, err := matrix.Construct[float64](matrix.Config[float64]{
		M: 6, N: 6, NB: 2, Comm: world.Rank(0), P: 1, Q: 1,
		Rand: rand.New(rand.NewSource(3)),
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	view, err := m.Submatrix(1, 2, 1, 2)
	if err != nil {
		t.Fatalf("Submatrix: %v", err)
	}
	if view.MT() != 2 || view.NT() != 2 {
		t.Fatalf("view MT,NT = %d,%d, want 2,2", view.MT(), view.NT())
	}
	parentTile, err := m.Tile(1, 1)
	if err != nil {
		t.Fatalf("parent Tile(1,1): %v", err)
	}
	viewTile, err := view.Tile(0, 0)
	if err != nil {
		t.Fatalf("view Tile(0,0): %v", err)
	}
	if parentTile != viewTile {
		t.Fatalf("view and parent resolved to different tiles at the shared coordinate")
	}
}

func TestInsertLocalRejectsNonLocal(t *testing.T) {
	world := transport.NewWorld(2)
	m, err := matrix.Construct[float64](matrix.Config[float64]{
		M: 8, N: 8, NB: 2, Comm: world.Rank(0), P: 2, Q: 1,
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	// Find a tile not owned by rank 0.
	var ni, nj int
	found := false
	for i := 0; i < m.MT() && !found; i++ {
		for j := 0; j < m.NT() && !found; j++ {
			if !m.IsLocal(i, j) {
				ni, nj, found = i, j, true
			}
		}
	}
	if !found {
		t.Skip("no non-local tile in this grid")
	}
	err = m.InsertLocal(ni, nj, make([]float64, 4), 2)
	if !cmn.Is(err, cmn.KindInvalidArgument) {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}
