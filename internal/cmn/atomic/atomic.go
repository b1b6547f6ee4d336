// Package atomic provides small typed wrappers over sync/atomic, mirroring
// the teacher's cmn/atomic (atomic.Int64, atomic.Int32 fields on XactTCB
// in tcb.go) so call sites read as named counters rather than raw
// int64 + atomic funcs.
package atomic

import "sync/atomic"

// Int32 is an atomically accessed int32.
type Int32 struct{ v int32 }

func (a *Int32) Load() int32        { return atomic.LoadInt32(&a.v) }
func (a *Int32) Store(n int32)      { atomic.StoreInt32(&a.v, n) }
func (a *Int32) Inc() int32         { return atomic.AddInt32(&a.v, 1) }
func (a *Int32) Dec() int32         { return atomic.AddInt32(&a.v, -1) }
func (a *Int32) Add(n int32) int32  { return atomic.AddInt32(&a.v, n) }
func (a *Int32) CAS(old, new int32) bool {
	return atomic.CompareAndSwapInt32(&a.v, old, new)
}

// Int64 is an atomically accessed int64.
type Int64 struct{ v int64 }

func (a *Int64) Load() int64       { return atomic.LoadInt64(&a.v) }
func (a *Int64) Store(n int64)     { atomic.StoreInt64(&a.v, n) }
func (a *Int64) Inc() int64        { return atomic.AddInt64(&a.v, 1) }
func (a *Int64) Dec() int64        { return atomic.AddInt64(&a.v, -1) }
func (a *Int64) Add(n int64) int64 { return atomic.AddInt64(&a.v, n) }

// Bool is an atomically accessed bool.
type Bool struct{ v int32 }

func (b *Bool) Load() bool { return atomic.LoadInt32(&b.v) != 0 }
func (b *Bool) Store(v bool) {
	if v {
		atomic.StoreInt32(&b.v, 1)
	} else {
		atomic.StoreInt32(&b.v, 0)
	}
}

// CAS compares-and-swaps the boolean, returning whether it took effect.
func (b *Bool) CAS(old, new bool) bool {
	var o, n int32
	if old {
		o = 1
	}
	if new {
		n = 1
	}
	return atomic.CompareAndSwapInt32(&b.v, o, n)
}
