package core

// CANMatchKind selects how a CANMatcher compares identifiers.
type CANMatchKind uint8

const (
	MatchExact CANMatchKind = iota // frame.ID == ID
	MatchMasked                    // frame.ID&Mask == ID&Mask
	MatchRanged                    // ID <= frame.ID <= Last
	MatchAll                       // every frame
)

// CANMatcher is the identifier predicate of a route. It is a small closed set
// of variants evaluated with a switch so dispatch never allocates. The zero
// value matches the exact identifier 0.
type CANMatcher struct {
	Kind CANMatchKind
	ID   uint32
	Mask uint32 // MatchMasked only
	Last uint32 // MatchRanged only, inclusive
}

// MatchID matches one exact identifier.
func MatchID(id uint32) CANMatcher {
	return CANMatcher{Kind: MatchExact, ID: id}
}

// MatchMask matches when (frame.ID & mask) == (id & mask).
func MatchMask(id, mask uint32) CANMatcher {
	return CANMatcher{Kind: MatchMasked, ID: id & mask, Mask: mask}
}

// MatchRange matches identifiers in [first, last].
func MatchRange(first, last uint32) CANMatcher {
	if last < first {
		first, last = last, first
	}
	return CANMatcher{Kind: MatchRanged, ID: first, Last: last}
}

// MatchAny matches every frame; use it as a catch-all at the back of a router.
func MatchAny() CANMatcher {
	return CANMatcher{Kind: MatchAll}
}

// Matches reports whether id satisfies the predicate.
func (m CANMatcher) Matches(id uint32) bool {
	switch m.Kind {
	case MatchExact:
		return id == m.ID
	case MatchMasked:
		return id&m.Mask == m.ID&m.Mask
	case MatchRanged:
		return id >= m.ID && id <= m.Last
	case MatchAll:
		return true
	default:
		return false
	}
}

// String returns a short description such as "id=0x100" or "mask=0x100/0x700".
func (m CANMatcher) String() string {
	switch m.Kind {
	case MatchExact:
		return "id=" + idtoa(m.ID)
	case MatchMasked:
		return "mask=" + idtoa(m.ID) + "/" + idtoa(m.Mask)
	case MatchRanged:
		return "range=" + idtoa(m.ID) + "-" + idtoa(m.Last)
	case MatchAll:
		return "any"
	default:
		return "invalid"
	}
}
