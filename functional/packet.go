// Package functional evaluates bound functions against packets.
//
// A function descriptor (Descr) names a registry symbol and carries its
// argument list. Resolving a descriptor against a Registry yields a
// Function whose Eval is total: it always returns exactly one
// Disposition and never fails. The only error an evaluation path can
// surface is an unresolvable symbol, and that happens at Resolve time,
// before any packet is seen.
//
// Actions may mutate only two attributes of the packet they are given:
// the classification tag and the delivery-group mask (plus the
// host-stack mark). They never retain the packet after returning.
package functional

// Packet is the handle an action borrows for one evaluation. The
// dispatch pipeline owns it; exactly one goroutine evaluates a given
// packet at a time, so implementations need no synchronisation.
type Packet interface {
	// Class returns the classification tag as a single-bit mask.
	Class() uint64
	// SetClass replaces the classification tag.
	SetClass(mask uint64)
	// Groups returns the delivery-group mask.
	Groups() uint64
	// SetGroups replaces the delivery-group mask.
	SetGroups(mask uint64)
	// MarkToKernel flags the packet for the host network stack.
	MarkToKernel()
	// ToKernel reports whether MarkToKernel has been called.
	ToKernel() bool
}
