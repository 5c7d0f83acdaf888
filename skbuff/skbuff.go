// Package skbuff provides an in-memory packet handle for the functional
// evaluator.
package skbuff

import "fmt"

// Buff is one in-flight frame. Only the metadata the evaluator may
// touch is modelled; Data is carried but never interpreted.
type Buff struct {
	Data []byte

	class    uint64
	groups   uint64
	toKernel bool
}

// New returns a Buff wrapping data with no class, no groups and no
// host-stack mark.
func New(data []byte) *Buff {
	return &Buff{Data: data}
}

// State is a snapshot of a Buff's mutable metadata.
type State struct {
	Class    uint64 `json:"class"`
	Groups   uint64 `json:"groups"`
	ToKernel bool   `json:"to_kernel"`
}

// FromState returns a Buff initialised from s.
func FromState(data []byte, s State) *Buff {
	return &Buff{Data: data, class: s.Class, groups: s.Groups, toKernel: s.ToKernel}
}

func (b *Buff) Class() uint64         { return b.class }
func (b *Buff) SetClass(mask uint64)  { b.class = mask }
func (b *Buff) Groups() uint64        { return b.groups }
func (b *Buff) SetGroups(mask uint64) { b.groups = mask }
func (b *Buff) MarkToKernel()         { b.toKernel = true }
func (b *Buff) ToKernel() bool        { return b.toKernel }

// State returns a snapshot of the metadata.
func (b *Buff) State() State {
	return State{Class: b.class, Groups: b.groups, ToKernel: b.toKernel}
}

func (b *Buff) String() string {
	return fmt.Sprintf("skb{len=%d class=%#x groups=%#x to_kernel=%t}", len(b.Data), b.class, b.groups, b.toKernel)
}
