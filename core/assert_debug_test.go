//go:build haldebug

package core

import (
	"strings"
	"testing"
)

// mustPanic runs fn and checks that it panics with a message containing want.
func mustPanic(t *testing.T, name, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("%s: expected panic", name)
			return
		}
		msg, _ := r.(string)
		if !strings.Contains(msg, want) {
			t.Errorf("%s: panic %v does not mention %q", name, r, want)
		}
	}()
	fn()
}

func TestAssertCopiedRouter(t *testing.T) {
	var r CANRouter
	var h recorder
	route := NewCANRoute(MatchID(0x10), &h)
	r.Add(&route)

	c := r
	mustPanic(t, "dispatch on copy", "CANRouter copied", func() {
		c.Dispatch(MustCANFrame(0x10, nil))
	})
	if h.calls != 0 {
		t.Error("copied router must not reach the handler")
	}

	// the original stays usable
	if !r.Dispatch(MustCANFrame(0x10, nil)) || h.calls != 1 {
		t.Error("original router should still dispatch")
	}
}

func TestAssertCopiedList(t *testing.T) {
	var l List[int]
	var a, b Item[int]
	l.PushBack(&a)

	c := l
	mustPanic(t, "push on copy", "List copied", func() {
		c.PushBack(&b)
	})
	if b.Linked() || l.Len() != 1 {
		t.Error("failed push must leave both lists untouched")
	}
}

func TestAssertForeignMark(t *testing.T) {
	var l1, l2 List[int]
	var mark, it Item[int]
	l1.PushBack(&mark)

	mustPanic(t, "InsertAfter", "InsertAfter mark", func() {
		l2.InsertAfter(&it, &mark)
	})
	mustPanic(t, "InsertBefore", "InsertBefore mark", func() {
		l2.InsertBefore(&it, &mark)
	})
	if it.Linked() || l1.Len() != 1 || l2.Len() != 0 {
		t.Error("rejected insert must not link the item")
	}
}

func TestAssertStaleItemMove(t *testing.T) {
	var l List[int]
	var a, dst Item[int]
	l.PushBack(&a)

	stale := a
	mustPanic(t, "move from stale copy", "stale copy", func() {
		Move(&dst, &stale)
	})
	if l.Front() != &a {
		t.Error("list should still reference the original item")
	}
}

func TestAssertCopiedLinkedItemRemove(t *testing.T) {
	var l List[int]
	var a Item[int]
	l.PushBack(&a)

	c := a
	mustPanic(t, "unlink copy", "copied while linked", func() {
		c.Unlink()
	})
}
