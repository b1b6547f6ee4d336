// Package nlog is the package-level logger used across dtile. It mirrors
// the teacher's terse, unstructured call-site style: callers format their
// own message and pick the verb (Infoln, Warningln, Errorln) rather than
// attaching structured fields.
package nlog

import (
	"fmt"
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)

// Verbosity gates expensive call sites (e.g. tile_bcast logging of every
// cell in a range) behind a global level, set once at startup.
var verbosity int32

// SetVerbosity adjusts the global log verbosity. Higher is noisier.
func SetVerbosity(v int32) { verbosity = v }

// FastV reports whether the caller's desired verbosity level is enabled,
// without allocating or formatting anything on the fast (disabled) path.
func FastV(v int32) bool { return verbosity >= v }

func Infoln(args ...any)             { std.Output(2, "I "+fmt.Sprintln(args...)) } //nolint:errcheck
func Infof(f string, args ...any)    { std.Output(2, "I "+fmt.Sprintf(f, args...)) } //nolint:errcheck
func Warningln(args ...any)          { std.Output(2, "W "+fmt.Sprintln(args...)) } //nolint:errcheck
func Warningf(f string, args ...any) { std.Output(2, "W "+fmt.Sprintf(f, args...)) } //nolint:errcheck
func Errorln(args ...any)            { std.Output(2, "E "+fmt.Sprintln(args...)) } //nolint:errcheck
func Errorf(f string, args ...any)   { std.Output(2, "E "+fmt.Sprintf(f, args...)) } //nolint:errcheck
