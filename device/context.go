package device

import (
	"github.com/dtile-project/dtile/internal/cmn"
	"github.com/dtile-project/dtile/tile"
)

// Context is the per-device scratch from spec.md §4.6: two streams, a
// BLAS handle bound to the compute stream, and three host/device pointer
// arrays sized to the owning Matrix's maximum local tile count for this
// device.
type Context struct {
	ID      int
	Compute tile.Stream
	Comm    tile.Stream
	Handle  Handle
	A, B, C *PointerArray

	backend Backend
	stop    []*workerStream
}

// NewContext allocates streams and a BLAS handle for device id using
// backend. Batch arrays are sized by a later InitBatchArrays call, once
// the owning Matrix knows its max local tile count.
func NewContext(id int, backend Backend) *Context {
	c := &Context{ID: id, backend: backend}
	c.InitStreams()
	c.InitBLASHandle()
	return c
}

// InitStreams (re)allocates the compute and communication streams.
func (c *Context) InitStreams() {
	compute := c.backend.NewStream()
	comm := c.backend.NewStream()
	c.Compute, c.Comm = compute, comm
	if ws, ok := compute.(*workerStream); ok {
		c.stop = append(c.stop, ws)
	}
	if ws, ok := comm.(*workerStream); ok {
		c.stop = append(c.stop, ws)
	}
}

// InitBLASHandle binds a fresh accelerator BLAS handle to the compute
// stream.
func (c *Context) InitBLASHandle() {
	c.Handle = c.backend.NewHandle(c.ID, c.Compute)
}

// InitBatchArrays allocates the three pinned host/device pointer arrays
// at the given capacity. spec.md §4.6's capacity invariant requires
// capacity >= every matrix's max_local_tiles(device) using this context;
// callers are expected to call this once they know that bound, and may
// call it again to grow capacity (old arrays are dropped, not resized in
// place, since batched kernels hold no references across calls).
func (c *Context) InitBatchArrays(capacity int) error {
	if capacity < 0 {
		return cmn.InvalidArgument("Context.InitBatchArrays", "negative capacity %d", capacity)
	}
	c.A = newPointerArray(capacity)
	c.B = newPointerArray(capacity)
	c.C = newPointerArray(capacity)
	return nil
}

// Capacity returns the batch arrays' current length, or 0 if
// InitBatchArrays has not been called.
func (c *Context) Capacity() int {
	if c.A == nil {
		return 0
	}
	return c.A.Len()
}

// Destroy releases the context's streams. Set.Destroy calls it for every
// context; Matrix calls neither.
func (c *Context) Destroy() {
	for _, ws := range c.stop {
		ws.Close()
	}
	c.stop = nil
}
