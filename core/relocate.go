package core

// Relocatable is satisfied by *T when instances of T are referenced by
// address from elsewhere: a list sentinel referenced by its items, or a router
// registered as a driver's receive handler. Intercept runs on the destination
// right after the previous instance's fields were copied into it and must
// rewrite every reference to previous so that it resolves to the receiver.
type Relocatable[T any] interface {
	*T
	Intercept(previous *T)
}

// Releaser is implemented by relocatable types that must drop their own
// outstanding references before another instance is moved on top of them.
type Releaser interface {
	Release()
}

// Move relocates src into dst. It is the only relocation-safe way to change
// the address of a Relocatable value: a plain copy leaves every back-reference
// pointing at the old instance.
//
// Sequence:
//  1. dst == src is a no-op
//  2. dst.Release() when dst is a Releaser (move-assignment)
//  3. *dst = *src
//  4. dst.Intercept(src) repoints every reference recorded against src
//  5. src is reset to its zero value, holding no inbound references
func Move[T any, P Relocatable[T]](dst, src P) {
	if dst == src {
		return
	}
	if r, ok := any(dst).(Releaser); ok {
		r.Release()
	}
	*dst = *src
	dst.Intercept((*T)(src))

	var zero T
	*src = zero
}
