//go:build haldebug

package core

// debugChecks enables contract assertions on list, relocation and router
// operations.
const debugChecks = true
