package functional

// Evaluator resolves descriptors against a registry and evaluates them
// with a shared diagnostic environment.
type Evaluator struct {
	registry *Registry
	env      *Env
}

// NewEvaluator returns an Evaluator. A nil registry selects
// DefaultRegistry; a nil logger discards diagnostics.
func NewEvaluator(registry *Registry, logger Logger) *Evaluator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Evaluator{
		registry: registry,
		env:      NewEnv(logger),
	}
}

// Registry returns the evaluator's registry.
func (e *Evaluator) Registry() *Registry { return e.registry }

// Resolve binds d to registered actions.
func (e *Evaluator) Resolve(d Descr) (*Function, error) {
	return e.registry.Resolve(d)
}

// ResolveChain resolves each descriptor and assembles them into a Chain.
func (e *Evaluator) ResolveChain(proceedOn uint32, ds ...Descr) (*Chain, error) {
	if len(ds) > MaxChain {
		return nil, ErrChainTooLong{Len: len(ds)}
	}
	stages := make([]*Function, 0, len(ds))
	for _, d := range ds {
		f, err := e.Resolve(d)
		if err != nil {
			return nil, err
		}
		stages = append(stages, f)
	}
	return NewChain(proceedOn, stages...)
}

// Eval applies a resolved function to b. It never fails.
func (e *Evaluator) Eval(f *Function, b Packet) Disposition {
	return f.Eval(e.env, b)
}

// Run evaluates a chain against b.
func (e *Evaluator) Run(c *Chain, b Packet) Disposition {
	return c.Eval(e.env, b)
}

// Evaluate resolves and applies d in one step. The error is non-nil
// only when d cannot be resolved.
func (e *Evaluator) Evaluate(d Descr, b Packet) (Disposition, error) {
	f, err := e.Resolve(d)
	if err != nil {
		return nil, err
	}
	return e.Eval(f, b), nil
}
