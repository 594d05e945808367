package core

import (
	"errors"
	"iter"
)

// Item is a node of a List. The item's storage belongs to whoever declared it
// (a global, a stack frame, or a field of a larger struct); the list only
// links and unlinks it and never allocates or frees it.
//
// The zero Item is unlinked and ready to be inserted. An Item must not be
// copied while it is linked; relocate it with Move instead.
type Item[T any] struct {
	Value T

	next, prev *Item[T]
	list       *List[T]
}

// Linked reports whether the item is currently linked into a list.
func (it *Item[T]) Linked() bool {
	return it.list != nil
}

// List returns the list the item is linked into, or nil.
func (it *Item[T]) List() *List[T] {
	return it.list
}

// Next returns the item following it, or nil at the back of the list.
func (it *Item[T]) Next() *Item[T] {
	if it.list == nil {
		return nil
	}
	if n := it.next; n != &it.list.root {
		return n
	}
	return nil
}

// Prev returns the item preceding it, or nil at the front of the list.
func (it *Item[T]) Prev() *Item[T] {
	if it.list == nil {
		return nil
	}
	if p := it.prev; p != &it.list.root {
		return p
	}
	return nil
}

// Unlink removes the item from whatever list holds it. Unlinking an item that
// is not linked is a no-op.
func (it *Item[T]) Unlink() {
	if it.list != nil {
		it.list.remove(it)
	}
}

// Intercept repoints the neighbours of a relocated item at its new address.
// Called by Move after the previous item's fields were copied into it.
func (it *Item[T]) Intercept(previous *Item[T]) {
	if it.list == nil {
		return
	}
	assert(it.prev.next == previous && it.next.prev == previous, "core: list item relocated from a stale copy")
	it.prev.next = it
	it.next.prev = it
}

// Release unlinks the item before another item is moved on top of it.
func (it *Item[T]) Release() {
	it.Unlink()
}

// List is a non-owning, non-allocating doubly linked list. Items are supplied
// by the caller and linked in place, so every mutation is O(1) and safe to run
// from interrupt context.
//
// The zero List is an empty list ready to use. A List must not be copied once
// used; relocate it with Move, which repoints every linked item.
type List[T any] struct {
	root Item[T] // sentinel; root.next is the front, root.prev the back
	len  int
}

func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
		return
	}
	assert(l.root.next.prev == &l.root, "core: List copied without Move")
}

// Len returns the number of linked items.
func (l *List[T]) Len() int {
	return l.len
}

// Empty reports whether the list has no linked items.
func (l *List[T]) Empty() bool {
	return l.len == 0
}

// Front returns the first item or nil.
func (l *List[T]) Front() *Item[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last item or nil.
func (l *List[T]) Back() *Item[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

// insert links it after at.
func (l *List[T]) insert(it, at *Item[T]) {
	it.prev = at
	it.next = at.next
	it.prev.next = it
	it.next.prev = it
	it.list = l
	l.len++
}

// remove unlinks it, which must be linked into l.
func (l *List[T]) remove(it *Item[T]) {
	assert(it.prev.next == it && it.next.prev == it, "core: list item copied while linked")
	it.prev.next = it.next
	it.next.prev = it.prev
	it.next = nil
	it.prev = nil
	it.list = nil
	l.len--
}

// PushBack links it at the back of the list. An item linked elsewhere is
// unlinked first.
func (l *List[T]) PushBack(it *Item[T]) {
	l.lazyInit()
	it.Unlink()
	l.insert(it, l.root.prev)
}

// PushFront links it at the front of the list. An item linked elsewhere is
// unlinked first.
func (l *List[T]) PushFront(it *Item[T]) {
	l.lazyInit()
	it.Unlink()
	l.insert(it, &l.root)
}

// InsertAfter links it immediately after mark, which must be linked into l.
func (l *List[T]) InsertAfter(it, mark *Item[T]) {
	if it == mark {
		return
	}
	assert(mark.list == l, "core: InsertAfter mark is not linked into this list")
	it.Unlink()
	l.insert(it, mark)
}

// InsertBefore links it immediately before mark, which must be linked into l.
func (l *List[T]) InsertBefore(it, mark *Item[T]) {
	if it == mark {
		return
	}
	assert(mark.list == l, "core: InsertBefore mark is not linked into this list")
	it.Unlink()
	l.insert(it, mark.prev)
}

// Remove unlinks it from the list. Items not linked into l are left alone.
func (l *List[T]) Remove(it *Item[T]) {
	if it.list == l {
		l.remove(it)
	}
}

// Clear unlinks every item. Afterwards each former item reports Linked()
// false and the list is empty.
func (l *List[T]) Clear() {
	if l.root.next == nil {
		return
	}
	for it := l.root.next; it != &l.root; {
		next := it.next
		it.next = nil
		it.prev = nil
		it.list = nil
		it = next
	}
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}

// Intercept fixes the sentinel's neighbours and every item's list pointer
// after Move copied previous into l.
func (l *List[T]) Intercept(previous *List[T]) {
	if l.len == 0 {
		l.root.next = nil
		l.root.prev = nil
		return
	}
	l.root.next.prev = &l.root
	l.root.prev.next = &l.root
	for it := l.root.next; it != &l.root; it = it.next {
		it.list = l
	}
}

// Release unlinks every item before another list is moved on top of l.
func (l *List[T]) Release() {
	l.Clear()
}

// All yields the value of every item from front to back. The item being
// visited may be removed from inside the loop.
func (l *List[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for it := l.Front(); it != nil; {
			next := it.Next()
			if !yield(&it.Value) {
				return
			}
			it = next
		}
	}
}

// Items yields every linked item from front to back.
func (l *List[T]) Items() iter.Seq[*Item[T]] {
	return func(yield func(*Item[T]) bool) {
		for it := l.Front(); it != nil; {
			next := it.Next()
			if !yield(it) {
				return
			}
			it = next
		}
	}
}

// Iterator is a cursor over a List. It stays valid across insertions and
// removals of other items; removing the item it references invalidates it.
type Iterator[T any] struct {
	item *Item[T]
	list *List[T]
}

// Begin returns an iterator at the front of the list, equal to End when the
// list is empty.
func (l *List[T]) Begin() Iterator[T] {
	return Iterator[T]{item: l.Front(), list: l}
}

// End returns the past-the-back iterator.
func (l *List[T]) End() Iterator[T] {
	return Iterator[T]{list: l}
}

// Next advances the iterator. Next on End stays at End.
func (i Iterator[T]) Next() Iterator[T] {
	if i.item == nil {
		return i
	}
	return Iterator[T]{item: i.item.Next(), list: i.list}
}

// Prev steps backwards. Prev on End yields the back of the list.
func (i Iterator[T]) Prev() Iterator[T] {
	if i.item == nil {
		if i.list == nil {
			return i
		}
		return Iterator[T]{item: i.list.Back(), list: i.list}
	}
	return Iterator[T]{item: i.item.Prev(), list: i.list}
}

// Equal compares iterator positions.
func (i Iterator[T]) Equal(other Iterator[T]) bool {
	return i.item == other.item
}

// Value returns the wrapped value. Calling Value on End panics.
func (i Iterator[T]) Value() *T {
	return &i.item.Value
}

// Item returns the referenced item, nil at End.
func (i Iterator[T]) Item() *Item[T] {
	return i.item
}

var (
	errListLength = errors.New("core: list length does not match linked items")
	errListLinks  = errors.New("core: list links are inconsistent")
	errListOwner  = errors.New("core: list item points at another list")
)

// verify walks the ring in both directions and checks the structural
// invariants. Used by tests.
func (l *List[T]) verify() error {
	if l.root.next == nil {
		if l.len != 0 {
			return errListLength
		}
		return nil
	}
	n := 0
	for it := l.root.next; it != &l.root; it = it.next {
		if it.next == nil || it.prev == nil || it.next.prev != it || it.prev.next != it {
			return errListLinks
		}
		if it.list != l {
			return errListOwner
		}
		n++
		if n > l.len {
			return errListLength
		}
	}
	if n != l.len {
		return errListLength
	}
	back := 0
	for it := l.root.prev; it != &l.root; it = it.prev {
		back++
		if back > l.len {
			return errListLinks
		}
	}
	if back != l.len {
		return errListLinks
	}
	return nil
}
