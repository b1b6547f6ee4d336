//go:build !linux

package pool

// mlock is a no-op on platforms without mlock(2); host blocks are still
// usable, just not pinned against swap.
func mlock[S any](block []S) error { return nil }
