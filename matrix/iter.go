package matrix

// IterShape controls which (I, J) cells gather and max_local_tiles
// iterate, generalizing the teacher's lineage's hardcoded lower-triangle
// restriction (spec.md §9's Open Question) into a construction-time
// parameter.
type IterShape int

const (
	// Full visits every (I, J) in [0, MT) x [0, NT). Default, matching
	// spec.md's "the core itself imposes no symmetry".
	Full IterShape = iota
	// LowerTriangle visits only J <= I, for Hermitian/symmetric callers.
	LowerTriangle
	// UpperTriangle visits only J >= I.
	UpperTriangle
)

func (s IterShape) includes(i, j int) bool {
	switch s {
	case LowerTriangle:
		return j <= i
	case UpperTriangle:
		return j >= i
	default:
		return true
	}
}
