package core

// assert panics with msg when structural checks are compiled in (build tag
// haldebug) and ok is false. Release builds reduce it to nothing.
func assert(ok bool, msg string) {
	if debugChecks && !ok {
		panic(msg)
	}
}
