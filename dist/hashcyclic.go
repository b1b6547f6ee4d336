package dist

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

// HashCyclic is an alternate, user-selectable Distribution that scatters
// tiles by a hash of their coordinates rather than by arithmetic
// block-cycling. It exists to exercise spec.md §9's "polymorphic over a
// distribution trait" design note with a second real implementation, and
// is grounded on the node.Hash-keyed placement idiom in
// Resinat-Resin/internal/topology/pool.go.
//
// Row/column extents are unaffected by placement strategy and reuse the
// same ragged-last-tile formula as BlockCyclic.
type HashCyclic struct {
	dims
	p, q, d int
}

// NewHashCyclic builds a hash-scattered distribution for an M x N matrix
// tiled at nb, across a p x q grid with d devices per rank.
func NewHashCyclic(m, n, nb, p, q, d int) *HashCyclic {
	return &HashCyclic{dims: newDims(m, n, nb), p: p, q: q, d: d}
}

func (h *HashCyclic) Grid() (int, int) { return h.p, h.q }

func coordHash(i, j int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(i))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(j))
	return xxhash.Checksum64(buf[:])
}

func (h *HashCyclic) OwnerRank(i, j int) int {
	n := h.p * h.q
	if n <= 0 {
		return 0
	}
	return int(coordHash(i, j) % uint64(n))
}

func (h *HashCyclic) Device(i, j int) (int, bool) {
	if h.d <= 0 {
		return 0, false
	}
	return int(coordHash(i, j+1) % uint64(h.d)), true
}

func (h *HashCyclic) RowHeight(i int) int { return h.rowHeight(i) }
func (h *HashCyclic) ColWidth(j int) int  { return h.colWidth(j) }
