package tile

// Scalar is the set of element types a Tile may hold. Generics let one
// implementation serve every precision SLATE-derived numerical routines
// need (real and complex, single and double) without reflection or
// per-type code generation — spec.md never restricts "scalar type" to
// one concrete type, so this is the idiomatic Go reading of that
// genericity (see SPEC_FULL.md §7, Open Question 1).
type Scalar interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}
