package functional

// Built-in action symbols.
const (
	SymDrop             = "drop"
	SymBroadcast        = "broadcast"
	SymToHostStack      = "to_host_stack"
	SymReclassify       = "reclassify"
	SymDeliver          = "deliver"
	SymUnit             = "unit"
	SymSeq              = "seq"
	SymWhenClass        = "when_class"
	SymConditionalClass = "conditional_class"
)

func builtins() map[string]ActionFunc {
	return map[string]ActionFunc{
		SymDrop:             forwardDrop,
		SymBroadcast:        forwardBroadcast,
		SymToHostStack:      forwardToKernel,
		SymReclassify:       forwardClass,
		SymDeliver:          forwardDeliver,
		SymUnit:             unit,
		SymSeq:              seq,
		SymWhenClass:        whenClass,
		SymConditionalClass: conditionalClass,
	}
}

// validID reports whether id can be turned into a single-bit mask. Zero
// is reserved: it is what an unbound integer argument reads as.
func validID(id int64) bool {
	return id > 0 && id < 64
}

func mask(id int64) uint64 {
	return 1 << uint(id)
}

func forwardDrop(_ *Env, _ Arguments, b Packet) Disposition {
	return Drop{Buff: b}
}

func forwardBroadcast(_ *Env, _ Arguments, b Packet) Disposition {
	return Broadcast{Buff: b}
}

func forwardToKernel(_ *Env, _ Arguments, b Packet) Disposition {
	b.MarkToKernel()
	return ToHost{Buff: b}
}

// forwardClass sets the classification tag. An unset class id is an
// internal error; the packet is forwarded untouched rather than dropped.
func forwardClass(env *Env, args Arguments, b Packet) Disposition {
	c := args.Int(0)
	if !validID(c) {
		env.Diag("reclassify: internal error", "class", c)
		return Forward{Buff: b}
	}
	b.SetClass(mask(c))
	return Forward{Buff: b}
}

// forwardDeliver delivers to one group without touching the class tag.
func forwardDeliver(env *Env, args Arguments, b Packet) Disposition {
	g := args.Int(0)
	if !validID(g) {
		env.Diag("deliver: internal error", "group", g)
		return Forward{Buff: b}
	}
	return Deliver{Buff: b, Mask: mask(g)}
}
