package matrix

import (
	"unsafe"

	"github.com/dtile-project/dtile/tile"
)

// elementsToBytes reinterprets a compact (unstrided) element slice as
// raw bytes for handing to transport.Communicator, which only knows
// about []byte payloads.
func elementsToBytes[S tile.Scalar](s []S) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero S
	sz := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*sz)
}

// bytesToElements is elementsToBytes's inverse, used to decode a
// received payload back into the scalar type before copying it into a
// tile.
func bytesToElements[S tile.Scalar](b []byte, n int) []S {
	if n == 0 {
		return nil
	}
	var zero S
	sz := int(unsafe.Sizeof(zero))
	if len(b) < n*sz {
		return nil
	}
	return unsafe.Slice((*S)(unsafe.Pointer(&b[0])), n)
}
