//go:build !dtile_debug

package debug

const Enabled = false

// Assert is a no-op in production builds.
func Assert(bool, ...any) {}

// Assertf is a no-op in production builds.
func Assertf(bool, string, ...any) {}

// AssertNoErr is a no-op in production builds.
func AssertNoErr(error) {}
