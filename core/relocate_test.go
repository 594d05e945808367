package core

import "testing"

// counted records how often it was relocated, in the previous instance.
type counted struct {
	count int
}

func (c *counted) Intercept(previous *counted) {
	c.count = previous.count + 1
}

func TestMoveCallsIntercept(t *testing.T) {
	var m1, m2, m3, m4 counted

	Move(&m2, &m1)
	if m2.count != 1 {
		t.Errorf("Expected count 1, got %d", m2.count)
	}
	Move(&m3, &m2)
	Move(&m4, &m3)
	if m4.count != 3 {
		t.Errorf("Expected count 3, got %d", m4.count)
	}
	if m3.count != 0 || m2.count != 0 {
		t.Error("moved-from values should be reset")
	}
}

func TestMoveSelfIsNoop(t *testing.T) {
	m := counted{count: 5}
	Move(&m, &m)
	if m.count != 5 {
		t.Errorf("Self-move changed value to %d", m.count)
	}

	var l List[int]
	items := [2]Item[int]{{Value: 1}, {Value: 2}}
	l.PushBack(&items[0])
	l.PushBack(&items[1])
	Move(&l, &l)
	if l.Len() != 2 || items[0].List() != &l {
		t.Error("self-move must not disturb the list")
	}
	if err := l.verify(); err != nil {
		t.Fatal(err)
	}
}

func TestMoveList(t *testing.T) {
	src := new(List[int])
	items := [3]Item[int]{{Value: 1}, {Value: 2}, {Value: 3}}
	for i := range items {
		src.PushBack(&items[i])
	}

	var dst List[int]
	Move(&dst, src)

	if dst.Len() != 3 || src.Len() != 0 {
		t.Fatalf("Expected dst=3 src=0, got dst=%d src=%d", dst.Len(), src.Len())
	}
	for i := range items {
		if items[i].List() != &dst {
			t.Errorf("item %d still points at the old list", i)
		}
	}
	if got := listValues(&dst); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("Expected [1 2 3], got %v", got)
	}
	if err := dst.verify(); err != nil {
		t.Fatal(err)
	}

	// moved-from list is reusable and independent
	extra := Item[int]{Value: 9}
	src.PushBack(&extra)
	if src.Len() != 1 || dst.Len() != 3 {
		t.Error("moved-from list should be independent of the destination")
	}

	// removal through the relocated list still works
	items[1].Unlink()
	if got := listValues(&dst); !equalInts(got, []int{1, 3}) {
		t.Errorf("Expected [1 3], got %v", got)
	}
}

func TestMoveEmptyList(t *testing.T) {
	var src, dst List[int]
	var it Item[int]
	src.PushBack(&it)
	src.Remove(&it)

	Move(&dst, &src)
	if dst.Len() != 0 {
		t.Errorf("Expected empty dst, got %d", dst.Len())
	}
	dst.PushBack(&it)
	if err := dst.verify(); err != nil {
		t.Fatal(err)
	}
	if it.List() != &dst {
		t.Error("item should belong to dst")
	}
}

func TestMoveListOntoPopulatedList(t *testing.T) {
	var src, dst List[int]
	old := [2]Item[int]{{Value: 1}, {Value: 2}}
	fresh := Item[int]{Value: 3}
	dst.PushBack(&old[0])
	dst.PushBack(&old[1])
	src.PushBack(&fresh)

	Move(&dst, &src)

	if old[0].Linked() || old[1].Linked() {
		t.Error("items of the overwritten list must be unlinked")
	}
	if got := listValues(&dst); !equalInts(got, []int{3}) {
		t.Errorf("Expected [3], got %v", got)
	}
}

func TestMoveItem(t *testing.T) {
	var l List[int]
	a, b, c := Item[int]{Value: 1}, Item[int]{Value: 2}, Item[int]{Value: 3}
	l.PushBack(&a)
	l.PushBack(&b)
	l.PushBack(&c)

	var moved Item[int]
	Move(&moved, &b)

	if b.Linked() {
		t.Error("moved-from item should be unlinked")
	}
	if !moved.Linked() || moved.Value != 2 {
		t.Errorf("moved item should be linked with value 2, got %v", moved.Value)
	}
	if a.Next() != &moved || c.Prev() != &moved {
		t.Error("neighbours should point at the moved item")
	}
	if l.Len() != 3 {
		t.Errorf("Expected len 3, got %d", l.Len())
	}
	if err := l.verify(); err != nil {
		t.Fatal(err)
	}

	// moving the front and back items updates the sentinel
	var front, back Item[int]
	Move(&front, &a)
	Move(&back, &c)
	if l.Front() != &front || l.Back() != &back {
		t.Error("sentinel should point at relocated front/back")
	}
	if got := listValues(&l); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("Expected [1 2 3], got %v", got)
	}
}

func TestMoveItemOntoLinkedItem(t *testing.T) {
	var l List[int]
	a, b := Item[int]{Value: 1}, Item[int]{Value: 2}
	l.PushBack(&a)
	l.PushBack(&b)

	// move-assign b onto a: a's old link is dropped first
	Move(&a, &b)
	if l.Len() != 1 || l.Front() != &a || a.Value != 2 {
		t.Errorf("Expected single item with value 2, len=%d", l.Len())
	}
	if err := l.verify(); err != nil {
		t.Fatal(err)
	}
}
