package core

import "iter"

// RouteEntry binds an identifier predicate to a handler.
type RouteEntry struct {
	Match   CANMatcher
	Handler CANHandler // nil drops matching frames
}

// CANRoute is caller-owned route storage. It is linked into at most one
// router at a time and unlinks itself with Unlink.
//
//	var heartbeat = core.NewCANRoute(core.MatchID(0x700), core.CANHandlerFunc(onHeartbeat))
//	router.Add(&heartbeat)
type CANRoute = Item[RouteEntry]

// NewCANRoute returns an unlinked route.
func NewCANRoute(match CANMatcher, handler CANHandler) CANRoute {
	return CANRoute{Value: RouteEntry{Match: match, Handler: handler}}
}

// CANRouterStats counts dispatch outcomes.
type CANRouterStats struct {
	Dispatched uint32 // frames passed to Dispatch
	Matched    uint32 // frames handled by a route
	Dropped    uint32 // frames that matched no route
}

// CANRouter routes received frames to the first route whose predicate
// accepts the frame identifier. Routes are evaluated in insertion order, so
// duplicate or overlapping predicates resolve deterministically.
//
// The router holds only links to routes; the caller owns their storage. It
// performs no locking: mutation and dispatch must come from one execution
// context, or the caller serializes them (see Critical).
//
// The zero CANRouter is empty and detached. A CANRouter must not be copied
// once used; relocate it with Move so routes and the driver registration
// follow it.
type CANRouter struct {
	routes   List[RouteEntry]
	bus      CANDriver
	fallback CANHandler
	stats    CANRouterStats
	self     *CANRouter
}

// NewCANRouter creates a router and registers it as bus's receive handler.
// A nil bus yields a detached router fed through Dispatch.
func NewCANRouter(bus CANDriver) *CANRouter {
	r := &CANRouter{}
	r.Attach(bus)
	return r
}

func (r *CANRouter) checkCopy() {
	if r.self == nil {
		r.self = r
		return
	}
	assert(r.self == r, "core: CANRouter copied without Move")
}

// Attach registers the router as bus's receive handler, detaching it from
// any previous bus. The previous bus's handler is cleared even if another
// router has since attached to it.
func (r *CANRouter) Attach(bus CANDriver) {
	r.checkCopy()
	if r.bus != nil && r.bus != bus {
		r.bus.OnReceive(nil)
	}
	r.bus = bus
	if bus != nil {
		bus.OnReceive(r)
	}
}

// Bus returns the driver the router receives from, for transmitting through
// the same port. Nil when detached.
func (r *CANRouter) Bus() CANDriver {
	return r.bus
}

// Add links route at the back of the router. A route registered with
// another router is unlinked from it first.
func (r *CANRouter) Add(route *CANRoute) {
	r.checkCopy()
	r.routes.PushBack(route)
	RecordEvent(EvtRouteAdd, route.Value.Match.ID, uint32(r.routes.Len()))
}

// AddMessageCallback fills route with an exact-identifier predicate and
// handler and adds it. A nil handler drops matching frames, which shadows
// later routes for the same identifier.
func (r *CANRouter) AddMessageCallback(route *CANRoute, id uint32, handler CANHandler) {
	route.Unlink()
	route.Value = RouteEntry{Match: MatchID(id), Handler: handler}
	r.Add(route)
}

// Remove unlinks route. Routes not linked into this router are left alone.
func (r *CANRouter) Remove(route *CANRoute) {
	if !r.Owns(route) {
		return
	}
	r.routes.Remove(route)
	RecordEvent(EvtRouteRemove, route.Value.Match.ID, uint32(r.routes.Len()))
}

// Owns reports whether route is linked into this router.
func (r *CANRouter) Owns(route *CANRoute) bool {
	return route.List() == &r.routes
}

// Len returns the number of linked routes.
func (r *CANRouter) Len() int {
	return r.routes.Len()
}

// Empty reports whether no routes are linked.
func (r *CANRouter) Empty() bool {
	return r.routes.Empty()
}

// Routes yields the linked route entries in evaluation order.
func (r *CANRouter) Routes() iter.Seq[*RouteEntry] {
	return r.routes.All()
}

// SetFallback installs a handler for frames no route accepts. Nil restores
// silent dropping.
func (r *CANRouter) SetFallback(handler CANHandler) {
	r.fallback = handler
}

// Stats returns the dispatch counters.
func (r *CANRouter) Stats() CANRouterStats {
	return r.stats
}

// ResetStats zeroes the dispatch counters.
func (r *CANRouter) ResetStats() {
	r.stats = CANRouterStats{}
}

// Dispatch runs the handler of the first route accepting frame.ID and
// reports whether one did. Unmatched frames go to the fallback handler if
// set, otherwise they are dropped. Never allocates.
func (r *CANRouter) Dispatch(frame CANFrame) bool {
	r.checkCopy()
	r.stats.Dispatched++
	for it := r.routes.Front(); it != nil; it = it.Next() {
		if !it.Value.Match.Matches(frame.ID) {
			continue
		}
		r.stats.Matched++
		if h := it.Value.Handler; h != nil {
			h.HandleCAN(frame)
		}
		return true
	}
	r.stats.Dropped++
	if r.fallback != nil {
		RecordEvent(EvtFallback, frame.ID, 0)
		r.fallback.HandleCAN(frame)
		return false
	}
	RecordEvent(EvtDrop, frame.ID, 0)
	return false
}

// HandleCAN makes the router a CANHandler; drivers call it on receive.
func (r *CANRouter) HandleCAN(frame CANFrame) {
	r.Dispatch(frame)
}

// Close unlinks every route and detaches the router from its bus. Each
// former route reports Linked() false afterwards. The router stays usable.
// The bus handler is cleared unconditionally: closing a router whose bus was
// taken over by another router detaches that router too, which must then
// Attach again.
func (r *CANRouter) Close() {
	n := r.routes.Len()
	r.routes.Clear()
	if r.bus != nil {
		r.bus.OnReceive(nil)
		r.bus = nil
	}
	if n > 0 {
		RecordEvent(EvtRouterClose, uint32(n), 0)
	}
}

// Release implements Releaser: a router overwritten by Move is closed first.
func (r *CANRouter) Release() {
	r.Close()
}

// Intercept implements Relocatable. The list sentinel and every route's list
// pointer move to the new router, and the bus is re-pointed at it.
func (r *CANRouter) Intercept(previous *CANRouter) {
	r.routes.Intercept(&previous.routes)
	r.self = r
	if r.bus != nil {
		r.bus.OnReceive(r)
	}
	RecordEvent(EvtRelocate, uint32(r.routes.Len()), 0)
}
