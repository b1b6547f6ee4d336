// Package mono provides monotonic-clock helpers, mirroring the teacher's
// cmn/mono (mono.NanoTime, mono.Since used for rxlast/quiescence timing in
// tcb.go).
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since the package was initialized.
// Safe to compare across goroutines within one process; not meaningful
// across processes or after a restart.
func NanoTime() int64 { return int64(time.Since(start)) }

// Since returns the duration elapsed since a NanoTime() reading.
func Since(ns int64) time.Duration { return time.Duration(NanoTime() - ns) }
