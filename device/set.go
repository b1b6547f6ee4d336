package device

import "github.com/dtile-project/dtile/internal/cmn"

// Set is the collection of per-device Contexts a Matrix allocates at
// construction and shares with its submatrix views. Matrix has no
// teardown method and never calls Destroy.
type Set struct {
	backend Backend
	ctxs    []*Context
}

// NewSet allocates count device contexts using backend.
func NewSet(count int, backend Backend) *Set {
	if backend == nil {
		backend = CPUBackend{}
	}
	s := &Set{backend: backend, ctxs: make([]*Context, count)}
	for i := 0; i < count; i++ {
		s.ctxs[i] = NewContext(i, backend)
	}
	return s
}

// Count returns the number of device contexts.
func (s *Set) Count() int { return len(s.ctxs) }

// Context returns the context for device id.
func (s *Set) Context(id int) (*Context, error) {
	if id < 0 || id >= len(s.ctxs) {
		return nil, cmn.InvalidArgument("Set.Context", "device %d out of range [0,%d)", id, len(s.ctxs))
	}
	return s.ctxs[id], nil
}

// InitBatchArrays sizes device i's batch arrays to capacities[i].
// matrix.Construct calls this with MaxLocalTiles for each device.
func (s *Set) InitBatchArrays(capacities []int) error {
	if len(capacities) != len(s.ctxs) {
		return cmn.InvalidArgument("Set.InitBatchArrays", "%d capacities for %d devices", len(capacities), len(s.ctxs))
	}
	for i, ctx := range s.ctxs {
		if err := ctx.InitBatchArrays(capacities[i]); err != nil {
			return err
		}
	}
	return nil
}

// Destroy tears down every device context.
func (s *Set) Destroy() {
	for _, ctx := range s.ctxs {
		ctx.Destroy()
	}
}
