// Package device implements DeviceContext from spec.md §4.6: per-device
// compute/communication streams, a BLAS handle, and pinned host/device
// pointer-array scratch for batched kernels.
//
// No cgo GPU binding exists anywhere in the retrieved example pack (the
// only candidate, opencl-go/cl12, is a single cgo file with no buildable
// module and no native OpenCL runtime available — see DESIGN.md), so
// Backend is an interface and the module ships one CPU-simulated
// implementation. A real accelerator backend is pluggable exactly as
// transport.Communicator is for MPI.
package device

import "sync"

// workerStream is the CPU-simulated Backend's Stream: a dedicated
// goroutine draining a FIFO task queue, giving Enqueue non-blocking,
// strictly-ordered semantics (spec.md §5: "per device stream: strict
// FIFO").
type workerStream struct {
	tasks chan func() error

	wg sync.WaitGroup

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	done      chan struct{}
}

func newWorkerStream() *workerStream {
	s := &workerStream{
		tasks: make(chan func() error, 256),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *workerStream) loop() {
	for {
		select {
		case fn := <-s.tasks:
			err := fn()
			s.mu.Lock()
			if err != nil && s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
			s.wg.Done()
		case <-s.done:
			return
		}
	}
}

// Enqueue implements tile.Stream.
func (s *workerStream) Enqueue(fn func() error) {
	s.wg.Add(1)
	s.tasks <- fn
}

// Synchronize implements tile.Stream.
func (s *workerStream) Synchronize() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the stream's worker goroutine. Called by Context.Destroy.
func (s *workerStream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
