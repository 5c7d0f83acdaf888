// Package xdp lowers compositions whose outcome does not depend on the
// packet into XDP programs.
//
// Only the fixed-verdict subset of the language lowers: drop, the
// pass-through actions, and seq over those. Anything that inspects or
// rewrites packet metadata stays in the evaluator.
package xdp

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"

	"github.com/frobware/go-pfq/functional"
)

// ErrNotLowerable is returned for compositions outside the fixed-verdict
// subset.
var ErrNotLowerable = errors.New("composition cannot be lowered to XDP")

// XDPAction represents XDP return codes.
type XDPAction uint32

const (
	XDPAborted  XDPAction = 0
	XDPDrop     XDPAction = 1
	XDPPass     XDPAction = 2
	XDPTX       XDPAction = 3
	XDPRedirect XDPAction = 4
)

func (a XDPAction) String() string {
	switch a {
	case XDPAborted:
		return "XDP_ABORTED"
	case XDPDrop:
		return "XDP_DROP"
	case XDPPass:
		return "XDP_PASS"
	case XDPTX:
		return "XDP_TX"
	case XDPRedirect:
		return "XDP_REDIRECT"
	default:
		return fmt.Sprintf("XDPAction(%d)", uint32(a))
	}
}

// ProceedOnMask returns a bitmask for the given XDP actions. A chain
// continues to its next stage when a stage returns one of them.
func ProceedOnMask(actions ...XDPAction) uint32 {
	var mask uint32
	for _, a := range actions {
		mask |= 1 << uint32(a)
	}
	return mask
}

// Lower returns the fixed action d always produces.
//
// The evaluator's seq continues only when its first stage forwards the
// packet. unit forwards; to_host_stack hands the packet over and ends
// the sequence, although both pass in XDP terms.
func Lower(d functional.Descr) (XDPAction, error) {
	a, _, err := lower(d, 0)
	return a, err
}

// lower returns the action for d and whether d forwards the packet to
// whatever follows it.
func lower(d functional.Descr, depth int) (XDPAction, bool, error) {
	if depth > functional.MaxDepth {
		return 0, false, functional.ErrTooDeep{Symbol: d.Symbol}
	}
	switch d.Symbol {
	case functional.SymDrop:
		return XDPDrop, false, nil
	case functional.SymToHostStack:
		return XDPPass, false, nil
	case functional.SymUnit:
		return XDPPass, true, nil
	case functional.SymSeq:
		// Slots beyond the second are padding.
		f, g := funcArg(d, 0), funcArg(d, 1)
		if f == nil || g == nil {
			return 0, false, fmt.Errorf("%s: %w", d, ErrNotLowerable)
		}
		first, forwarded, err := lower(*f, depth+1)
		if err != nil || !forwarded {
			return first, false, err
		}
		return lower(*g, depth+1)
	default:
		return 0, false, fmt.Errorf("%s: %w", d.Symbol, ErrNotLowerable)
	}
}

func funcArg(d functional.Descr, i int) *functional.Descr {
	if i >= len(d.Args) {
		return nil
	}
	return d.Args[i].Func
}

// ProgramSpec returns an XDP program that returns action for every
// packet.
func ProgramSpec(name string, action XDPAction) *ebpf.ProgramSpec {
	return &ebpf.ProgramSpec{
		Name:    name,
		Type:    ebpf.XDP,
		License: "GPL",
		Instructions: asm.Instructions{
			asm.Mov.Imm(asm.R0, int32(action)),
			asm.Return(),
		},
	}
}
