package device

import (
	"fmt"

	"github.com/dtile-project/dtile/tile"
)

// Handle is an opaque accelerator BLAS handle bound to one compute
// stream. The CPU-simulated backend's handle carries nothing beyond a
// name for diagnostics.
type Handle interface {
	// Name identifies the backend and device the handle belongs to,
	// e.g. "cpu-sim[dev=0]".
	Name() string
}

// Backend constructs streams and BLAS handles for one accelerator kind.
// Swap the default CPUBackend for a real accelerator binding by
// implementing this interface.
type Backend interface {
	NewStream() tile.Stream
	NewHandle(dev int, compute tile.Stream) Handle
}

// CPUBackend is the module's reference Backend: every "device" is
// simulated with ordinary goroutines and host memory. It exists so
// DeviceContext, the pointer-array staging protocol, and batched-kernel
// call sites can be built, tested, and driven end to end without a GPU.
type CPUBackend struct{}

func (CPUBackend) NewStream() tile.Stream { return newWorkerStream() }

func (CPUBackend) NewHandle(dev int, _ tile.Stream) Handle { return cpuHandle{dev: dev} }

type cpuHandle struct{ dev int }

func (h cpuHandle) Name() string { return fmt.Sprintf("cpu-sim[dev=%d]", h.dev) }
