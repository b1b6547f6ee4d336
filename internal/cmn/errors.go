// Package cmn holds the error taxonomy and small cross-cutting helpers
// shared by every dtile package, modeled on the teacher's cmn package:
// one file of sentinel error *kinds*, constructed with context and
// optionally wrapping an underlying cause.
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error taxonomy entries from spec.md §7.
type Kind int

const (
	// KindAllocFailed means the pool or an underlying allocator refused
	// to produce a block. Unwinds the current operation; never retried
	// silently.
	KindAllocFailed Kind = iota
	// KindTransferFailed means a host<->device or rank-to-rank transport
	// call returned a non-success status.
	KindTransferFailed
	// KindNotResident means a tile was requested at a location with no
	// registry entry. Caller bug; returned as an ordinary error in every
	// build.
	KindNotResident
	// KindInvalidArgument means out-of-range submatrix bounds, an
	// ill-formed broadcast range, or mismatched mb/nb. Caller bug.
	KindInvalidArgument
	// KindInvariantViolated means a negative life counter, a pool release
	// at the wrong location, or a receive into an already-resident slot.
	// Caller bug.
	KindInvariantViolated
)

func (k Kind) String() string {
	switch k {
	case KindAllocFailed:
		return "AllocFailed"
	case KindTransferFailed:
		return "TransferFailed"
	case KindNotResident:
		return "NotResident"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvariantViolated:
		return "InvariantViolated"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by dtile operations, in
// checked and production builds alike. Pool.Release is the one place
// that panics with one.
type Error struct {
	Kind Kind
	Msg  string
	// Op names the operation that failed, e.g. "TilePool.acquire".
	Op string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}

// New builds a *Error of the given kind for op, without an underlying
// cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a *Error of the given kind for op, folding cause's text
// into Msg via errors.Wrapf. The cause value itself is not kept:
// errors.Cause / errors.Unwrap on the result do not reach it.
func Wrap(kind Kind, op string, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Op: op, Msg: errors.Wrapf(cause, "%s", msg).Error()}
}

// AllocFailed constructs a KindAllocFailed error.
func AllocFailed(op string, cause error, format string, args ...any) *Error {
	if cause == nil {
		return New(KindAllocFailed, op, format, args...)
	}
	return Wrap(KindAllocFailed, op, cause, format, args...)
}

// TransferFailed constructs a KindTransferFailed error.
func TransferFailed(op string, cause error, format string, args ...any) *Error {
	if cause == nil {
		return New(KindTransferFailed, op, format, args...)
	}
	return Wrap(KindTransferFailed, op, cause, format, args...)
}

// NotResident constructs a KindNotResident error.
func NotResident(op string, format string, args ...any) *Error {
	return New(KindNotResident, op, format, args...)
}

// InvalidArgument constructs a KindInvalidArgument error.
func InvalidArgument(op string, format string, args ...any) *Error {
	return New(KindInvalidArgument, op, format, args...)
}

// InvariantViolated constructs a KindInvariantViolated error.
func InvariantViolated(op string, format string, args ...any) *Error {
	return New(KindInvariantViolated, op, format, args...)
}
