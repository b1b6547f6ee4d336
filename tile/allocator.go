package tile

// Allocator is the seam between a Tile and its owning pool, kept as an
// interface rather than a concrete back-pointer so the tile package never
// imports the pool package (the design-notes "no upward pointers" rule in
// spec.md §9, applied here to the pool the same way spec.md applies it to
// the registry). pool.Pool[S] implements this.
type Allocator[S Scalar] interface {
	// Acquire returns a block of BlockLen elements resident at loc.
	Acquire(loc Location) ([]S, error)
	// Release returns a previously acquired block to loc's free list.
	// pool.Pool panics with InvariantViolated when the block's capacity is
	// not BlockLen; it does not check that loc is the location the block
	// was acquired at.
	Release(block []S, loc Location)
	// BlockLen is the fixed number of elements in every block this
	// allocator hands out (nb*nb, spec.md §4.2).
	BlockLen() int
}
