//go:build !haldebug

package core

// debugChecks is off in release builds; contract violations are not checked.
const debugChecks = false
