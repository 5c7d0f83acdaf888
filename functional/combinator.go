package functional

func unit(_ *Env, _ Arguments, b Packet) Disposition {
	return Forward{Buff: b}
}

// seq runs f, then g on the same packet if f forwarded it.
func seq(env *Env, args Arguments, b Packet) Disposition {
	d := args.Func(0).Eval(env, b)
	if d.Verdict() != VerdictForward {
		return d
	}
	return args.Func(1).Eval(env, d.Packet())
}

// whenClass runs f when the packet's class tag has bit c set.
func whenClass(env *Env, args Arguments, b Packet) Disposition {
	c := args.Int(0)
	if !validID(c) {
		env.Diag("when_class: internal error", "class", c)
		return Forward{Buff: b}
	}
	if b.Class()&mask(c) == 0 {
		return Forward{Buff: b}
	}
	return args.Func(1).Eval(env, b)
}

// conditionalClass runs f when bit c of the class tag is set, g
// otherwise.
func conditionalClass(env *Env, args Arguments, b Packet) Disposition {
	c := args.Int(0)
	if !validID(c) {
		env.Diag("conditional_class: internal error", "class", c)
		return Forward{Buff: b}
	}
	if b.Class()&mask(c) != 0 {
		return args.Func(1).Eval(env, b)
	}
	return args.Func(2).Eval(env, b)
}
