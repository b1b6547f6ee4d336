//go:build linux

package pool

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mlock pins block's backing memory so the host free list holds true
// page-locked blocks, per spec.md §4.2's "pre-allocates count page-locked
// host blocks". Best-effort: mlock commonly fails under constrained
// ulimits (e.g. containers without CAP_IPC_LOCK), in which case the block
// is still usable, just not pinned, so the error is swallowed rather than
// surfaced as AllocFailed.
func mlock[S any](block []S) error {
	if len(block) == 0 {
		return nil
	}
	var zero S
	sz := int(unsafe.Sizeof(zero))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&block[0])), len(block)*sz)
	_ = unix.Mlock(b)
	return nil
}
