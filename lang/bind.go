package lang

import (
	"github.com/frobware/go-pfq/tuple"
)

// Option adjusts how a binder freezes its argument list.
type Option func(*bindOptions)

type bindOptions struct {
	width int
	fill  Arg
}

// Pad right-extends the argument list to width slots using fill. It
// never truncates: when the binder already supplies width or more
// arguments, the list is left as is. A nil fill disables padding.
func Pad(width int, fill Arg) Option {
	return func(o *bindOptions) {
		o.width = width
		o.fill = fill
	}
}

// Values is a run-time built tuple of plain values, used by the binders
// whose value count is not fixed by their signature.
type Values struct {
	args []Arg
}

// Tuple builds a Values from plain arguments. Bytes are copied.
func Tuple(vs ...Value) Values {
	return Values{args: tuple.Map(func(v Value) Arg { return cloneArg(v) }, vs)}
}

// Len returns the number of values.
func (v Values) Len() int { return len(v.args) }

// Pad returns v right-extended to width with fill.
func (v Values) Pad(width int, fill Value) Values {
	if fill == nil {
		return v
	}
	return Values{args: tuple.Pad(cloneArg(fill), v.args, width)}
}

func freeze(symbol string, shape Shape, args []Arg, opts []Option) Node {
	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.fill != nil && len(args) < o.width {
		args = tuple.Pad(cloneArg(o.fill), args, o.width)
	}
	return Node{symbol: symbol, shape: shape, args: args}
}

func ref(n Node) Arg { return Ref{node: n} }

func values(v Values) []Arg {
	out := make([]Arg, 0, len(v.args)+2)
	return append(out, v.args...)
}

// Bind binds a function that takes no arguments.
func Bind(symbol string, opts ...Option) Node {
	return freeze(symbol, ShapeValues, nil, opts)
}

// Bind1 binds a function to one plain value.
func Bind1[A Literal](symbol string, a A, opts ...Option) Node {
	return freeze(symbol, ShapeValues, []Arg{Lift(a)}, opts)
}

// Bind2 binds a function to two plain values.
func Bind2[A, B Literal](symbol string, a A, b B, opts ...Option) Node {
	return freeze(symbol, ShapeValues, []Arg{Lift(a), Lift(b)}, opts)
}

// Bind3 binds a function to three plain values.
func Bind3[A, B, C Literal](symbol string, a A, b B, c C, opts ...Option) Node {
	return freeze(symbol, ShapeValues, []Arg{Lift(a), Lift(b), Lift(c)}, opts)
}

// Bind4 binds a function to four plain values.
func Bind4[A, B, C, D Literal](symbol string, a A, b B, c C, d D, opts ...Option) Node {
	return freeze(symbol, ShapeValues, []Arg{Lift(a), Lift(b), Lift(c), Lift(d)}, opts)
}

// BindP binds a function to a tuple of plain values.
func BindP(symbol string, vs Values, opts ...Option) Node {
	return freeze(symbol, ShapeValues, values(vs), opts)
}

// BindPF binds a function to plain values followed by a continuation.
func BindPF(symbol string, vs Values, f Node, opts ...Option) Node {
	return freeze(symbol, ShapeValuesFn, append(values(vs), ref(f)), opts)
}

// BindPFF binds a function to plain values followed by two
// continuations, as used by conditionals: "if values then f else g".
func BindPFF(symbol string, vs Values, f, g Node, opts ...Option) Node {
	return freeze(symbol, ShapeValuesFnFn, append(values(vs), ref(f), ref(g)), opts)
}

// BindF binds a higher-order function to a single continuation.
func BindF(symbol string, f Node, opts ...Option) Node {
	return freeze(symbol, ShapeFn, []Arg{ref(f)}, opts)
}

// BindFF binds a higher-order function to two continuations.
func BindFF(symbol string, f, g Node, opts ...Option) Node {
	return freeze(symbol, ShapeFnFn, []Arg{ref(f), ref(g)}, opts)
}

// Bind1F binds a function to one plain value and one continuation.
func Bind1F[A Literal](symbol string, a A, f Node, opts ...Option) Node {
	return freeze(symbol, ShapeValueFn, []Arg{Lift(a), ref(f)}, opts)
}
