package functional

import (
	"bytes"
	"fmt"
	"slices"
	"sync"
)

// MaxDepth bounds how deeply continuations may nest in one descriptor.
const MaxDepth = 32

// ActionFunc is the signature every action implements. It must not
// block, must not retain b, and must return a Disposition carrying b.
type ActionFunc func(env *Env, args Arguments, b Packet) Disposition

// Registry maps symbols to action implementations.
//
// Registration normally happens once at start-up. Lookups take a read
// lock, but the hot path never reaches the registry: Resolve binds each
// symbol to its ActionFunc up front.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]ActionFunc)}
}

// DefaultRegistry returns a registry holding the built-in actions and
// combinators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for symbol, fn := range builtins() {
		r.actions[symbol] = fn
	}
	return r
}

// Register adds an action under symbol.
func (r *Registry) Register(symbol string, fn ActionFunc) error {
	if symbol == "" {
		return fmt.Errorf("register: empty symbol")
	}
	if fn == nil {
		return fmt.Errorf("register %q: nil action", symbol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[symbol]; exists {
		return ErrDuplicateSymbol{Symbol: symbol}
	}
	r.actions[symbol] = fn
	return nil
}

// Lookup returns the action registered under symbol.
func (r *Registry) Lookup(symbol string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[symbol]
	return fn, ok
}

// Symbols returns the registered symbols in sorted order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.actions))
	for symbol := range r.actions {
		out = append(out, symbol)
	}
	slices.Sort(out)
	return out
}

// Resolve binds d and every continuation nested in its arguments to
// registered actions.
func (r *Registry) Resolve(d Descr) (*Function, error) {
	return r.resolve(d, 0)
}

func (r *Registry) resolve(d Descr, depth int) (*Function, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep{Symbol: d.Symbol}
	}

	fn, ok := r.Lookup(d.Symbol)
	if !ok {
		return nil, ErrSymbolNotFound{Symbol: d.Symbol}
	}

	args := Arguments{
		args: slices.Clone(d.Args),
		fns:  make([]*Function, len(d.Args)),
	}
	for i, a := range d.Args {
		if a.Kind == ArgBytes {
			args.args[i].Bytes = bytes.Clone(a.Bytes)
		}
		if a.Kind != ArgFunc || a.Func == nil {
			continue
		}
		cont, err := r.resolve(*a.Func, depth+1)
		if err != nil {
			return nil, err
		}
		args.fns[i] = cont
	}

	return &Function{symbol: d.Symbol, action: fn, args: args}, nil
}

// Function is a resolved descriptor, ready for evaluation. It is
// immutable and may be shared by any number of concurrent evaluators.
type Function struct {
	symbol string
	action ActionFunc
	args   Arguments
}

// Symbol returns the symbol the function was resolved from.
func (f *Function) Symbol() string {
	if f == nil {
		return ""
	}
	return f.symbol
}

// Args returns the function's resolved arguments.
func (f *Function) Args() Arguments {
	if f == nil {
		return Arguments{}
	}
	return f.args
}

// Eval applies f to b. A nil function forwards b unchanged.
func (f *Function) Eval(env *Env, b Packet) Disposition {
	if f == nil {
		return Forward{Buff: b}
	}
	if env == nil {
		env = discardEnv
	}
	return f.action(env, f.args, b)
}
