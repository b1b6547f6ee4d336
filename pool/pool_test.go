package pool_test

import (
	"testing"

	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/pool"
	"github.com/dtile-project/dtile/tile"
)

func TestReserveHostGrowsFreeList(t *testing.T) {
	p := pool.New[float64](4)
	if err := p.ReserveHost(3); err != nil {
		t.Fatalf("ReserveHost: %v", err)
	}
	if got := p.Outstanding(tile.HostLocation); got != 3 {
		t.Fatalf("Outstanding = %d, want 3", got)
	}
}

func TestAcquireReleaseRoundtrip(t *testing.T) {
	p := pool.New[float64](4)
	block, err := p.Acquire(tile.HostLocation)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(block) != p.BlockLen() {
		t.Fatalf("block len = %d, want %d", len(block), p.BlockLen())
	}
	p.Release(block, tile.HostLocation)
	if got := p.Outstanding(tile.HostLocation); got != 1 {
		t.Fatalf("Outstanding after release = %d, want 1", got)
	}
}

func TestReleaseWrongSizePanicsInvariantViolated(t *testing.T) {
	p := pool.New[float64](4)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic releasing a mismatched block")
		}
		if err, ok := r.(*cmn.Error); !ok || err.Kind != cmn.KindInvariantViolated {
			t.Fatalf("panic value = %v, want InvariantViolated", r)
		}
	}()
	p.Release(make([]float64, 1), tile.HostLocation)
}

func TestHostAndDeviceLocationsAreIndependent(t *testing.T) {
	p := pool.New[float64](4)
	if err := p.ReserveHost(1); err != nil {
		t.Fatalf("ReserveHost: %v", err)
	}
	if err := p.ReserveDevice(0, 2); err != nil {
		t.Fatalf("ReserveDevice: %v", err)
	}
	if got := p.Outstanding(tile.HostLocation); got != 1 {
		t.Fatalf("host outstanding = %d, want 1", got)
	}
	if got := p.Outstanding(tile.DeviceLocation(0)); got != 2 {
		t.Fatalf("dev0 outstanding = %d, want 2", got)
	}
}
