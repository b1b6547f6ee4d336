package matrix

import (
	"math/rand"

	"github.com/dtile-project/dtile/tile"
)

// randomScalar draws one pseudo-random value of S. Go conversions never
// cross the float/complex boundary for non-constant values, so each
// concrete case is built at its own type and only the final result
// passes through the type assertion back to S.
func randomScalar[S tile.Scalar](r *rand.Rand) S {
	var zero S
	var v any
	switch any(zero).(type) {
	case complex64:
		v = complex64(complex(r.NormFloat64(), r.NormFloat64()))
	case complex128:
		v = complex(r.NormFloat64(), r.NormFloat64())
	case float32:
		v = float32(r.NormFloat64())
	default:
		v = r.NormFloat64()
	}
	return v.(S)
}

// diagonalBoost returns the magnitude added to a diagonal element during
// random fill of a triangular (Hermitian-intended) matrix, large enough
// relative to nb off-diagonal N(0,1) entries to make the tile diagonally
// dominant.
func diagonalBoost[S tile.Scalar](nb int) S {
	var zero S
	mag := float64(nb) * 4
	var v any
	switch any(zero).(type) {
	case complex64:
		v = complex64(complex(mag, 0))
	case complex128:
		v = complex(mag, 0)
	case float32:
		v = float32(mag)
	default:
		v = mag
	}
	return v.(S)
}

func addScalar[S tile.Scalar](a, b S) S { return a + b }
