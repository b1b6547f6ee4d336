package tile_test

import (
	"testing"

	"github.com/dtile-project/dtile/pool"
	"github.com/dtile-project/dtile/tile"
)

func TestConstructCompactsStride(t *testing.T) {
	p := pool.New[float64](4)
	tl, err := tile.Construct[float64](2, 2, p)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if tl.Stride() != tl.MB() {
		t.Fatalf("stride %d, want %d", tl.Stride(), tl.MB())
	}
	if tl.Location() != tile.HostLocation {
		t.Fatalf("location %v, want host", tl.Location())
	}
}

func TestConstructFromOriginNeverFrees(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	tl, err := tile.ConstructFrom[float64](2, 2, data, 2)
	if err != nil {
		t.Fatalf("ConstructFrom: %v", err)
	}
	if !tl.Origin() {
		t.Fatalf("expected origin tile")
	}
	tl.Release()
	if tl.Data() == nil {
		t.Fatalf("Release cleared an origin tile's data")
	}
}

func TestAtSetRoundtrip(t *testing.T) {
	p := pool.New[float64](2)
	tl, err := tile.Construct[float64](2, 2, p)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	tl.Set(1, 0, 42)
	if got := tl.At(1, 0); got != 42 {
		t.Fatalf("At(1,0) = %v, want 42", got)
	}
}

func TestCopyToHostToHostIsSynchronousAndByteExact(t *testing.T) {
	p := pool.New[float64](2)
	src, err := tile.Construct[float64](2, 2, p)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	src.Set(0, 0, 1)
	src.Set(1, 0, 2)
	src.Set(0, 1, 3)
	src.Set(1, 1, 4)

	dst, err := src.CopyTo(p, tile.HostLocation, nil)
	if err != nil {
		t.Fatalf("CopyTo: %v", err)
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if dst.At(r, c) != src.At(r, c) {
				t.Fatalf("dst.At(%d,%d) = %v, want %v", r, c, dst.At(r, c), src.At(r, c))
			}
		}
	}
}

func TestCopyFromRejectsShortStride(t *testing.T) {
	p := pool.New[float64](2)
	tl, err := tile.Construct[float64](2, 2, p)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if err := tl.CopyFrom([]float64{1, 2}, 1); err == nil {
		t.Fatalf("expected error for lda < mb")
	}
}
