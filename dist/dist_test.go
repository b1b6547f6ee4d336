package dist_test

import (
	"testing"

	"github.com/dtile-project/dtile/dist"
)

func TestBlockCyclicOwnerRankTotality(t *testing.T) {
	p, q, d := 2, 3, 4
	bc := dist.NewBlockCyclic(16, 24, 4, p, q, d)
	mt, nt := 4, 6
	for i := 0; i < mt; i++ {
		for j := 0; j < nt; j++ {
			owner := bc.OwnerRank(i, j)
			if owner < 0 || owner >= p*q {
				t.Fatalf("owner_rank(%d,%d) = %d out of [0,%d)", i, j, owner, p*q)
			}
			dev, ok := bc.Device(i, j)
			if !ok || dev < 0 || dev >= d {
				t.Fatalf("device(%d,%d) = (%d,%v), want ok in [0,%d)", i, j, dev, ok, d)
			}
		}
	}
}

func TestBlockCyclicFormula(t *testing.T) {
	bc := dist.NewBlockCyclic(16, 16, 4, 2, 2, 0)
	// owner_rank(I,J) = (I mod p) + (J mod q)*p
	if got, want := bc.OwnerRank(1, 1), 1+1*2; got != want {
		t.Fatalf("OwnerRank(1,1) = %d, want %d", got, want)
	}
	if dev, ok := bc.Device(0, 0); ok {
		t.Fatalf("Device with d=0 should report ok=false, got dev=%d", dev)
	}
}

func TestBlockCyclicRaggedLastTile(t *testing.T) {
	bc := dist.NewBlockCyclic(10, 10, 4, 1, 1, 0)
	// MT = ceil(10/4) = 3, last row height = 10 - 2*4 = 2.
	if got := bc.RowHeight(2); got != 2 {
		t.Fatalf("RowHeight(2) = %d, want 2", got)
	}
	if got := bc.RowHeight(0); got != 4 {
		t.Fatalf("RowHeight(0) = %d, want 4", got)
	}
}

func TestHashCyclicTotality(t *testing.T) {
	p, q, d := 3, 2, 2
	hc := dist.NewHashCyclic(20, 20, 5, p, q, d)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			owner := hc.OwnerRank(i, j)
			if owner < 0 || owner >= p*q {
				t.Fatalf("owner_rank(%d,%d) = %d out of [0,%d)", i, j, owner, p*q)
			}
		}
	}
}

func TestHashCyclicDeterministic(t *testing.T) {
	hc := dist.NewHashCyclic(20, 20, 5, 3, 2, 2)
	a := hc.OwnerRank(2, 3)
	b := hc.OwnerRank(2, 3)
	if a != b {
		t.Fatalf("OwnerRank not deterministic: %d vs %d", a, b)
	}
}
