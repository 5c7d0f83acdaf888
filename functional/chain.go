package functional

// MaxChain is the maximum number of stages in one Chain.
const MaxChain = 10

// Chain evaluates resolved functions in order. After each stage the
// verdict is checked against the proceed-on mask: a verdict in the mask
// moves on to the next stage, any other verdict ends the chain.
//
// A later stage replaces the disposition of the one before it. With
// VerdictDeliver in the mask, a Deliver's group mask is lost unless the
// last stage to run is the one that delivered.
type Chain struct {
	stages    []*Function
	proceedOn uint32
}

// NewChain builds a chain. A zero proceedOn means "proceed on forward".
func NewChain(proceedOn uint32, stages ...*Function) (*Chain, error) {
	if len(stages) > MaxChain {
		return nil, ErrChainTooLong{Len: len(stages)}
	}
	if proceedOn == 0 {
		proceedOn = ProceedOnMask(VerdictForward)
	}
	return &Chain{
		stages:    append([]*Function(nil), stages...),
		proceedOn: proceedOn,
	}, nil
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Eval runs the chain. An empty or nil chain forwards b.
func (c *Chain) Eval(env *Env, b Packet) Disposition {
	var d Disposition = Forward{Buff: b}
	if c == nil {
		return d
	}
	for _, stage := range c.stages {
		d = stage.Eval(env, d.Packet())
		if c.proceedOn&(1<<uint32(d.Verdict())) == 0 {
			return d
		}
	}
	return d
}
