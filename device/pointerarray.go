package device

import (
	"unsafe"

	"github.com/dtile-project/dtile/tile"
)

// PointerArray is one of the three (A, B, C) pinned host arrays mirrored
// on the device, per spec.md §4.6. Numerical routines fill Host with the
// addresses of the tiles a batched kernel will touch, then call Upload to
// stage the device-side mirror before launching the kernel.
type PointerArray struct {
	Host   []unsafe.Pointer
	Device []unsafe.Pointer
}

func newPointerArray(capacity int) *PointerArray {
	return &PointerArray{
		Host:   make([]unsafe.Pointer, capacity),
		Device: make([]unsafe.Pointer, capacity),
	}
}

// Len returns the array's fixed capacity.
func (p *PointerArray) Len() int { return len(p.Host) }

// Upload mirrors Host onto Device on stream. In the CPU-simulated
// backend host and device share one address space, so Upload is a plain
// copy; a real accelerator backend would issue an async H2D memcpy here
// instead.
func (p *PointerArray) Upload(stream tile.Stream) {
	stream.Enqueue(func() error {
		copy(p.Device, p.Host)
		return nil
	})
}
