// Package tile implements the Tile type from spec.md §4.1: a rectangular
// dense block with explicit host<->device copy primitives, sized and
// placed by whatever owns it (TilePool, or the caller for origin tiles).
package tile

import (
	"unsafe"

	"golang.org/x/crypto/blake2b"

	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/internal/hooks"
)

// Tile is a dense mb x nb column-major block of scalars resident at one
// Location. stride >= mb always (spec.md §3 invariant).
type Tile[S Scalar] struct {
	mb, nb, stride int
	data           []S
	location       Location
	origin         bool
	alloc          Allocator[S]
}

// Construct allocates a new host-resident tile of mb x nb elements from
// alloc, compacting stride to mb (spec.md §4.1 "construct").
func Construct[S Scalar](mb, nb int, alloc Allocator[S]) (*Tile[S], error) {
	if mb <= 0 || nb <= 0 {
		return nil, cmn.InvalidArgument("tile.Construct", "mb=%d nb=%d must be positive", mb, nb)
	}
	block, err := alloc.Acquire(HostLocation)
	if err != nil {
		return nil, cmn.AllocFailed("tile.Construct", err, "acquire host block for %dx%d tile", mb, nb)
	}
	return &Tile[S]{mb: mb, nb: nb, stride: mb, data: block[:mb*nb], location: HostLocation, alloc: alloc}, nil
}

// ConstructFrom wraps caller-owned host memory; the returned Tile never
// frees data (spec.md §3: "origin tiles never free their data").
func ConstructFrom[S Scalar](mb, nb int, data []S, lda int) (*Tile[S], error) {
	if mb <= 0 || nb <= 0 {
		return nil, cmn.InvalidArgument("tile.ConstructFrom", "mb=%d nb=%d must be positive", mb, nb)
	}
	if lda < mb {
		return nil, cmn.InvalidArgument("tile.ConstructFrom", "lda=%d < mb=%d", lda, mb)
	}
	need := lda*(nb-1) + mb
	if len(data) < need {
		return nil, cmn.InvalidArgument("tile.ConstructFrom", "data has %d elements, need >= %d", len(data), need)
	}
	return &Tile[S]{mb: mb, nb: nb, stride: lda, data: data, location: HostLocation, origin: true}, nil
}

func (t *Tile[S]) MB() int             { return t.mb }
func (t *Tile[S]) NB() int             { return t.nb }
func (t *Tile[S]) Stride() int         { return t.stride }
func (t *Tile[S]) Location() Location  { return t.location }
func (t *Tile[S]) Origin() bool        { return t.origin }
func (t *Tile[S]) Data() []S           { return t.data }
func (t *Tile[S]) Allocator() Allocator[S] { return t.alloc }

// At returns the element at local (row, col); col-major per spec.md §6.
func (t *Tile[S]) At(row, col int) S { return t.data[col*t.stride+row] }

// Set writes the element at local (row, col).
func (t *Tile[S]) Set(row, col int, v S) { t.data[col*t.stride+row] = v }

// Release returns the tile's block to its allocator (if any) and clears
// data. Origin tiles are untouched (spec.md §3). Called by
// TileRegistry.erase, never directly by callers.
func (t *Tile[S]) Release() {
	if t.origin || t.alloc == nil {
		return
	}
	t.alloc.Release(t.data, t.location)
	t.data = nil
}

// CopyTo asynchronously copies this tile's elements into a new tile
// acquired from alloc at targetLoc, using stream. Host-to-host copies run
// synchronously regardless of stream per spec.md §4.1; device-bound
// copies enqueue on stream without synchronizing with any other stream.
// The source tile is unaffected. Failure of the underlying transfer
// (checked via a blake2b digest of the moved bytes) is reported as
// TransferFailed.
func (t *Tile[S]) CopyTo(alloc Allocator[S], targetLoc Location, stream Stream) (*Tile[S], error) {
	dstBlock, err := alloc.Acquire(targetLoc)
	if err != nil {
		return nil, cmn.AllocFailed("Tile.CopyTo", err, "acquire %s block", targetLoc)
	}
	dst := &Tile[S]{mb: t.mb, nb: t.nb, stride: t.mb, data: dstBlock[:t.mb * t.nb], location: targetLoc, alloc: alloc}

	run := stream
	if t.location.Host && targetLoc.Host {
		run = &syncStream{}
	}
	srcSum := checksum(t.data, t.stride, t.mb, t.nb)
	var copyErr error
	run.Enqueue(func() error {
		copyBlock(dst.data, dst.stride, t.data, t.stride, t.mb, t.nb)
		dstSum := checksum(dst.data, dst.stride, dst.mb, dst.nb)
		if dstSum != srcSum {
			copyErr = cmn.TransferFailed("Tile.CopyTo", nil, "checksum mismatch copying to %s", targetLoc)
			return copyErr
		}
		hooks.BroadcastBytesTotal.Add(float64(elementSize[S]() * t.mb * t.nb))
		return nil
	})
	if sync, ok := run.(*syncStream); ok {
		if err := sync.Synchronize(); err != nil {
			hooks.TransferFailuresTotal.Inc()
			return nil, err
		}
	}
	return dst, nil
}

// CopyFrom performs a blocking elementwise copy from external storage
// (lda-strided) into this tile, overwriting its contents.
func (t *Tile[S]) CopyFrom(data []S, lda int) error {
	if lda < t.mb {
		return cmn.InvalidArgument("Tile.CopyFrom", "lda=%d < mb=%d", lda, t.mb)
	}
	need := lda*(t.nb-1) + t.mb
	if len(data) < need {
		return cmn.InvalidArgument("Tile.CopyFrom", "data has %d elements, need >= %d", len(data), need)
	}
	copyBlock(t.data, t.stride, data, lda, t.mb, t.nb)
	return nil
}

// copyBlock copies an mb x nb column-major block from src (stride
// srcStride) into dst (stride dstStride).
func copyBlock[S Scalar](dst []S, dstStride int, src []S, srcStride int, mb, nb int) {
	for col := 0; col < nb; col++ {
		copy(dst[col*dstStride:col*dstStride+mb], src[col*srcStride:col*srcStride+mb])
	}
}

// checksum hashes the logical mb x nb region of a possibly larger,
// strided block, so two tiles with the same logical contents but
// different stride/padding compare equal.
func checksum[S Scalar](data []S, stride, mb, nb int) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	for col := 0; col < nb; col++ {
		region := data[col*stride : col*stride+mb]
		h.Write(bytesOf(region))
	}
	var sum [blake2b.Size256]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func bytesOf[S Scalar](s []S) []byte {
	if len(s) == 0 {
		return nil
	}
	sz := elementSize[S]()
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*sz)
}

func elementSize[S Scalar]() int {
	var zero S
	return int(unsafe.Sizeof(zero))
}
