package functional

import "fmt"

// Verdict is the tag of a Disposition.
type Verdict uint8

const (
	VerdictForward Verdict = iota
	VerdictDrop
	VerdictBroadcast
	VerdictDeliver
	VerdictToHost
)

func (v Verdict) String() string {
	switch v {
	case VerdictForward:
		return "forward"
	case VerdictDrop:
		return "drop"
	case VerdictBroadcast:
		return "broadcast"
	case VerdictDeliver:
		return "deliver"
	case VerdictToHost:
		return "to_host_stack"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// ProceedOnMask returns a bitmask of the given verdicts. A Chain
// continues to its next stage while each stage's verdict is in the mask.
func ProceedOnMask(verdicts ...Verdict) uint32 {
	var mask uint32
	for _, v := range verdicts {
		mask |= 1 << uint32(v)
	}
	return mask
}

// Disposition is the outcome of evaluating one function against one
// packet. Every variant carries the input handle, possibly mutated.
type Disposition interface {
	Verdict() Verdict
	Packet() Packet
	isDisposition()
}

// Forward passes the packet on to the next stage.
type Forward struct {
	Buff Packet
}

// Drop discards the packet.
type Drop struct {
	Buff Packet
}

// Broadcast delivers the packet to every group.
type Broadcast struct {
	Buff Packet
}

// Deliver delivers the packet to the groups set in Mask.
type Deliver struct {
	Buff Packet
	Mask uint64
}

// ToHost hands the packet back to the host network stack.
type ToHost struct {
	Buff Packet
}

func (Forward) Verdict() Verdict   { return VerdictForward }
func (Drop) Verdict() Verdict      { return VerdictDrop }
func (Broadcast) Verdict() Verdict { return VerdictBroadcast }
func (Deliver) Verdict() Verdict   { return VerdictDeliver }
func (ToHost) Verdict() Verdict    { return VerdictToHost }

func (d Forward) Packet() Packet   { return d.Buff }
func (d Drop) Packet() Packet      { return d.Buff }
func (d Broadcast) Packet() Packet { return d.Buff }
func (d Deliver) Packet() Packet   { return d.Buff }
func (d ToHost) Packet() Packet    { return d.Buff }

func (Forward) isDisposition()   {}
func (Drop) isDisposition()      {}
func (Broadcast) isDisposition() {}
func (Deliver) isDisposition()   {}
func (ToHost) isDisposition()    {}
