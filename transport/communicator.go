// Package transport defines the Communicator seam spec.md §6 calls
// "MPI-compatible point-to-point and broadcast": the core depends only on
// this interface, never on a concrete transport. Production backends
// (real MPI, RDMA, gRPC streaming) are pluggable; this module ships one
// reference implementation, Loopback, for single-process multi-rank
// testing (see SPEC_FULL.md §7, Open Question 3).
//
// Every Communicator method is expected to be called under the caller's
// own per-rank "transport" critical section (spec.md §5). Loopback
// serializes its own Send and Recv per rank, but not NewGroup or a
// Group's methods; Matrix holds its transportMu around all of them.
package transport

// Communicator is a rank's view of the process grid's transport.
type Communicator interface {
	// Rank returns this communicator's rank in [0, Size()).
	Rank() int
	// Size returns the number of ranks in the world.
	Size() int
	// Send performs a single blocking point-to-point transfer to dest.
	Send(data []byte, dest int) error
	// Recv performs a single blocking point-to-point transfer from src.
	Recv(src int) ([]byte, error)
	// NewGroup builds a sub-communicator whose members are exactly ranks,
	// in ascending order. Every rank in ranks must call NewGroup with the
	// same ranks before any of them calls the returned Group's methods
	// (spec.md §4.5.1 step 5).
	NewGroup(ranks []int) (Group, error)
}

// Group is a sub-communicator built for one broadcast call.
type Group interface {
	// Rank returns this rank's index within the group (ascending-rank
	// order among the group's members).
	Rank() int
	// Size returns the group's member count.
	Size() int
	// Bcast broadcasts data from rootRank (a rank in the *group's*
	// local numbering) to every other member. Non-root callers pass a
	// nil/ignored data and receive the broadcast payload back.
	Bcast(data []byte, rootRank int) ([]byte, error)
	// Close tears down the sub-communicator (spec.md §4.5.1 step 7).
	Close()
}
